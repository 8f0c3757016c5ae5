// Package session holds the state of one editing session: the selected
// LaTeX, the user's instruction and optional context. It turns that state
// into token summaries and submits it to the configured provider.
//
// # Basic Usage
//
//	store, _ := settings.Open(path)
//	s := session.New(store)
//	if err := s.Reload(ctx); err != nil {
//	    return err
//	}
//
//	s.SetSelection(`\section{Intro} ...`)
//	s.SetInstruction("tighten the wording")
//	fmt.Println(s.Summary().Total().Text)
//
//	res, err := s.Submit(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.LaTeX)
//
// Only one submission runs at a time; a concurrent Submit returns ErrBusy.
// Cancel aborts the submission in flight.
//
// The full rendered prompt is sent unless WithFitContext is set, in which
// case the oldest context lines are cut to fit the model window.
// ContextWillBeCut reports this ahead of Submit.
package session
