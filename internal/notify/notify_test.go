package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mindwell/internal/config"
)

type fakeSMS struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	delay time.Duration
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("carrier rejected")
	}
	f.sent = append(f.sent, to+": "+body)
	return nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("relay refused")
	}
	f.sent = append(f.sent, to+": "+subject)
	return nil
}

func newTestDispatcher(sms SMSSender, email EmailSender) *Dispatcher {
	return NewDispatcher(nil, Options{SMS: sms, Email: email})
}

func TestDispatchBothChannels(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	d := newTestDispatcher(sms, email)

	results := d.Dispatch(context.Background(), Alert{
		UserID: "user1", UserName: "Alex", CrisisLevel: "critical",
		Contacts: Contacts{Phone: "+15550100", Email: "contact@example.com"},
	})
	if results.TotalAttempted != 2 || results.TotalSuccessful != 2 {
		t.Fatalf("expected 2/2, got %+v", results)
	}
	if len(results.NotificationsSent) != 2 || len(results.NotificationsFailed) != 0 {
		t.Fatalf("unexpected records: %+v", results)
	}
	if len(sms.sent) != 1 || !strings.Contains(sms.sent[0], "URGENT MENTAL HEALTH ALERT") {
		t.Fatalf("critical SMS template missing: %v", sms.sent)
	}
	if !strings.Contains(sms.sent[0], "Alex") {
		t.Fatalf("user name missing from SMS: %v", sms.sent)
	}
	if len(email.sent) != 1 || !strings.Contains(email.sent[0], "URGENT: Mental Health Crisis Alert for Alex") {
		t.Fatalf("critical email subject missing: %v", email.sent)
	}
}

func TestDispatchPartialFailureNeverRaises(t *testing.T) {
	sms := &fakeSMS{fail: true}
	email := &fakeEmail{}
	d := newTestDispatcher(sms, email)

	results := d.Dispatch(context.Background(), Alert{
		UserID: "user1", CrisisLevel: "high",
		Contacts: Contacts{Phone: "+15550100", Email: "contact@example.com"},
	})
	if results.TotalAttempted != 2 || results.TotalSuccessful != 1 {
		t.Fatalf("expected 1/2, got %+v", results)
	}
	if len(results.NotificationsFailed) != 1 || results.NotificationsFailed[0].Type != "sms" {
		t.Fatalf("sms failure not recorded: %+v", results.NotificationsFailed)
	}
	if results.NotificationsFailed[0].Error == "" {
		t.Fatalf("failure must carry its error")
	}
}

func TestDispatchNoContacts(t *testing.T) {
	d := newTestDispatcher(&fakeSMS{}, &fakeEmail{})
	results := d.Dispatch(context.Background(), Alert{UserID: "user1", CrisisLevel: "critical"})
	if results.TotalAttempted != 0 || results.Reason == "" {
		t.Fatalf("no contacts must short-circuit with a reason: %+v", results)
	}
}

func TestDispatchUnconfiguredChannelReported(t *testing.T) {
	d := newTestDispatcher(nil, &fakeEmail{})
	results := d.Dispatch(context.Background(), Alert{
		UserID: "user1", CrisisLevel: "high",
		Contacts: Contacts{Phone: "+15550100", Email: "contact@example.com"},
	})
	if results.TotalAttempted != 2 || results.TotalSuccessful != 1 {
		t.Fatalf("expected 1/2 with sms unconfigured, got %+v", results)
	}
	if len(results.NotificationsFailed) != 1 || !strings.Contains(results.NotificationsFailed[0].Error, "not configured") {
		t.Fatalf("unconfigured channel must be a recorded failure: %+v", results.NotificationsFailed)
	}
}

func TestDispatchDefaultUserName(t *testing.T) {
	sms := &fakeSMS{}
	d := newTestDispatcher(sms, nil)
	d.Dispatch(context.Background(), Alert{
		UserID: "user1", CrisisLevel: "moderate",
		Contacts: Contacts{Phone: "+15550100"},
	})
	if len(sms.sent) != 1 || !strings.Contains(sms.sent[0], "User may be going through a difficult time") {
		t.Fatalf("default user name missing: %v", sms.sent)
	}
}

func TestDispatchConcurrentAlerts(t *testing.T) {
	sms := &fakeSMS{delay: 5 * time.Millisecond}
	d := newTestDispatcher(sms, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results := d.Dispatch(context.Background(), Alert{
				UserID: "user1", CrisisLevel: "high",
				Contacts: Contacts{Phone: "+15550100"},
			})
			if results.TotalSuccessful != 1 {
				t.Errorf("concurrent dispatch dropped a send: %+v", results)
			}
		}()
	}
	wg.Wait()
	sms.mu.Lock()
	defer sms.mu.Unlock()
	if len(sms.sent) != 8 {
		t.Fatalf("expected 8 sends, got %d", len(sms.sent))
	}
}

func TestTwilioSenderRequest(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err == nil {
			gotBody = r.PostForm.Encode()
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender(config.TwilioConfig{
		AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15550999",
	})
	sender.baseURL = srv.URL

	if err := sender.SendSMS(context.Background(), "+15550100", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth == "" {
		t.Fatalf("basic auth missing")
	}
	if !strings.Contains(gotBody, "To=%2B15550100") || !strings.Contains(gotBody, "Body=hello") {
		t.Fatalf("unexpected form body %q", gotBody)
	}
}

func TestTwilioSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewTwilioSender(config.TwilioConfig{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15550999"})
	sender.baseURL = srv.URL

	err := sender.SendSMS(context.Background(), "bad", "hello")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSendersDisabledWithoutCredentials(t *testing.T) {
	if NewTwilioSender(config.TwilioConfig{}) != nil {
		t.Fatalf("twilio without credentials must be disabled")
	}
	if NewSMTPSender(config.SMTPConfig{}) != nil {
		t.Fatalf("smtp without credentials must be disabled")
	}
}
