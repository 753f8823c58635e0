package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

func TestPrintPasswordHash(t *testing.T) {
	var buf bytes.Buffer
	if err := printPasswordHash(&buf, "s3cret-pass"); err != nil {
		t.Fatalf("printPasswordHash: %v", err)
	}
	hash := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash: want bcrypt got=%q", hash)
	}

	a := auth.NewTrainerAuth(common.TrainerConfig{PasswordHash: hash, JWTSecret: "x", TokenTTL: time.Minute})
	if _, _, err := a.Login("s3cret-pass"); err != nil {
		t.Fatalf("login with printed hash: %v", err)
	}
	if _, _, err := a.Login("wrong"); err == nil {
		t.Fatalf("login with wrong password: want error")
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"a.ipynb":   constants.MimeNotebook,
		"b.PY":      constants.MimePython,
		"q.pdf":     constants.MimePDF,
		"notes.txt": constants.MimeText,
		"blob":      constants.MimeOctet,
	}
	for name, want := range cases {
		if got := contentTypeFor(name); got != want {
			t.Fatalf("%s: want=%s got=%s", name, want, got)
		}
	}
}
