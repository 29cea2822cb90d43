package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestTimeLogsRequestIDAndError(t *testing.T) {
	buf := captureLog(t)
	ctx := WithRequestID(context.Background(), "abc-123")

	func() (err error) {
		defer Time(ctx, "routes.Create")(&err)
		return errors.New("boom")
	}()

	out := buf.String()
	for _, want := range []string{"req_id=abc-123", "op=routes.Create", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestTimeWithoutError(t *testing.T) {
	buf := captureLog(t)

	func() (err error) {
		defer Time(context.Background(), "tracking.Latest")(&err)
		return nil
	}()

	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("unexpected error field in %q", buf.String())
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}
