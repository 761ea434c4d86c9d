package llm

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
)

// scriptedClient fails with the scripted errors in order, then succeeds.
type scriptedClient struct {
	failures []error
	answer   string
	attempts int
}

func (c *scriptedClient) Generate(_ context.Context, _ []Message) (string, error) {
	c.attempts++
	if c.attempts <= len(c.failures) {
		return "", c.failures[c.attempts-1]
	}
	return c.answer, nil
}

var _ Client = (*scriptedClient)(nil)

func zeroBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func newTestGenerator(client Client) *Generator {
	return NewGeneratorWithBackOff(client, log.New(io.Discard, "", 0), zeroBackOff)
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	client := &scriptedClient{answer: "ответ"}
	generator := newTestGenerator(client)

	answer, err := generator.Generate(context.Background(), []Message{{Role: RoleUser, Content: "вопрос"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "ответ" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if client.attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", client.attempts)
	}
}

func TestGenerateRetriesOverloadThenSucceeds(t *testing.T) {
	client := &scriptedClient{
		failures: []error{&OverloadedError{Status: 503, Message: "busy"}},
		answer:   "готово",
	}
	generator := newTestGenerator(client)

	answer, err := generator.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "готово" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if client.attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.attempts)
	}
}

func TestGenerateExhaustsRetriesOnPersistentOverload(t *testing.T) {
	client := &scriptedClient{
		failures: []error{
			&OverloadedError{Status: 503, Message: "busy"},
			&OverloadedError{Status: 503, Message: "busy"},
			&OverloadedError{Status: 503, Message: "busy"},
			&OverloadedError{Status: 503, Message: "busy"},
		},
	}
	generator := newTestGenerator(client)

	_, err := generator.Generate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if client.attempts != MaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", MaxAttempts, client.attempts)
	}

	var overloaded *OverloadedError
	if !errors.As(err, &overloaded) {
		t.Fatalf("error lost its overload classification: %T %v", err, err)
	}
	if !strings.Contains(err.Error(), "Попробуйте") {
		t.Fatalf("error is missing remediation guidance: %v", err)
	}
}

func TestGenerateServiceErrorFailsImmediately(t *testing.T) {
	client := &scriptedClient{
		failures: []error{&ServiceError{Status: 404, Message: "model not found"}},
	}
	generator := newTestGenerator(client)

	_, err := generator.Generate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected service error")
	}
	if client.attempts != 1 {
		t.Fatalf("service error must not retry: got %d attempts", client.attempts)
	}

	var service *ServiceError
	if !errors.As(err, &service) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
	if service.Status != 404 {
		t.Fatalf("status lost in propagation: %d", service.Status)
	}
}

func TestGenerateUnclassifiedErrorFailsImmediately(t *testing.T) {
	cause := errors.New("connection refused")
	client := &scriptedClient{failures: []error{cause}}
	generator := newTestGenerator(client)

	_, err := generator.Generate(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if client.attempts != 1 {
		t.Fatalf("unclassified error must not retry: got %d attempts", client.attempts)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("original error not preserved: %v", err)
	}
}

func TestDefaultBackOffGrowsStrictly(t *testing.T) {
	policy := defaultBackOff()

	first := policy.NextBackOff()
	second := policy.NextBackOff()
	if first <= 0 {
		t.Fatalf("first delay must be positive, got %v", first)
	}
	if second <= first {
		t.Fatalf("delays must strictly increase: %v then %v", first, second)
	}
}
