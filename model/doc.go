// Package model normalizes GPT model names and reconciles token estimates
// with the usage the service reports.
//
// Every submission is estimated client-side before it is sent. When the
// response carries usage accounting, the Tracker records both numbers so
// the estimator's drift can be observed per model, and keeps running token
// totals for a cost estimate.
//
// # Reconciliation
//
//	tracker := model.NewTracker()
//	rec := tracker.Record(resp.Model, summary.TotalTokens, resp.Usage)
//	if rec.Reconciled {
//	    fmt.Printf("estimate off by %+.0f%%\n", rec.RelativeError*100)
//	}
//
// # Cost Tracking
//
//	cost := tracker.EstimatedCost()
//
// Azure deployment names that do not contain a known model family are kept
// as-is and have no price.
package model
