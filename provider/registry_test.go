package provider

import (
	"context"
	"errors"
	"testing"
)

// mockClient implements Client for testing.
type mockClient struct {
	name string
}

func (m *mockClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return &Response{Content: "mock response"}, nil
}

func (m *mockClient) Provider() string { return m.name }

func (m *mockClient) Close() error { return nil }

func mockFactory(p Profile) (Client, error) {
	return &mockClient{name: string(p.Kind)}, nil
}

func validAzure() Profile {
	return NewAzureProfile("work", "https://res.openai.azure.com", "gpt-4o", "key-123456789")
}

func TestRegister(t *testing.T) {
	// Clear registry for clean test
	ClearRegistry()
	defer ClearRegistry()

	Register(KindAzure, mockFactory)

	if !IsRegistered(KindAzure) {
		t.Error("expected 'azure' to be registered")
	}
}

func TestRegister_Panic(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	Register(KindAzure, mockFactory)

	// Second registration should panic
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(KindAzure, mockFactory)
}

func TestNew(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	Register(KindAzure, mockFactory)

	client, err := New(validAzure())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Provider() != "azure" {
		t.Errorf("expected provider 'azure', got %q", client.Provider())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	_, err := New(validAzure())
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNew_IncompleteProfileNeverReachesFactory(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	called := false
	Register(KindAzure, func(p Profile) (Client, error) {
		called = true
		return &mockClient{}, nil
	})

	_, err := New(NewAzureProfile("work", "https://res.openai.azure.com", "", "key"))
	if !errors.Is(err, ErrIncompleteConfig) {
		t.Errorf("expected ErrIncompleteConfig, got %v", err)
	}
	if called {
		t.Error("factory should not run for an incomplete profile")
	}
}

func TestMustNew(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	Register(KindAzure, mockFactory)

	client := MustNew(validAzure())
	if client.Provider() != "azure" {
		t.Errorf("expected provider 'azure', got %q", client.Provider())
	}
}

func TestMustNew_Panics(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew(validAzure())
}

func TestAvailable(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	Register(KindOpenAI, mockFactory)
	Register(KindAzure, mockFactory)

	available := Available()
	if len(available) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(available))
	}
	// Should be sorted
	if available[0] != KindAzure || available[1] != KindOpenAI {
		t.Errorf("expected [azure, openai], got %v", available)
	}
}

func TestUnregister(t *testing.T) {
	ClearRegistry()
	defer ClearRegistry()

	Register(KindOpenAI, mockFactory)

	if !IsRegistered(KindOpenAI) {
		t.Error("expected 'openai' to be registered")
	}

	Unregister(KindOpenAI)

	if IsRegistered(KindOpenAI) {
		t.Error("expected 'openai' to be unregistered")
	}
}
