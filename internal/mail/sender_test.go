package mail

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSMTPSender_MissingConfig(t *testing.T) {
	t.Parallel()
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"})
	ok, detail := s.Send(context.Background(), "to@example.com", "subj", "body")
	if ok {
		t.Fatalf("want failure on incomplete config")
	}
	if !strings.Contains(detail, "missing SMTP details") {
		t.Fatalf("unexpected detail: %q", detail)
	}
}

func TestSMTPSender_DialFailureIsSoft(t *testing.T) {
	t.Parallel()
	s := NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     1, // nothing listens here
		Username: "u",
		Password: "p",
		From:     "from@example.com",
		Timeout:  200 * time.Millisecond,
	})
	ok, detail := s.Send(context.Background(), "to@example.com", "subj", "body")
	if ok {
		t.Fatalf("want dial failure")
	}
	if !strings.HasPrefix(detail, "dial:") {
		t.Fatalf("unexpected detail: %q", detail)
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	t.Parallel()
	msg := buildMessage("from@example.com", "to@example.com", "Reference Request", "Hello\nthere")
	for _, want := range []string{
		"From: from@example.com\r\n",
		"To: to@example.com\r\n",
		"Subject: Reference Request\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n\r\nHello\nthere",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
