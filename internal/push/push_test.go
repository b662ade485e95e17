package push

import (
	"encoding/base64"
	"testing"

	"github.com/homeboardhq/homeboard/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("keys must not be empty")
	}

	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("public key is not raw-url base64: %v", err)
	}
	// Uncompressed P-256 point: 0x04 prefix plus two 32-byte coordinates.
	if len(pubBytes) != 65 || pubBytes[0] != 0x04 {
		t.Errorf("public key encoding = %d bytes, prefix %#x", len(pubBytes), pubBytes[0])
	}

	pub2, _, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	if pub == pub2 {
		t.Error("two generated key pairs must differ")
	}
}

func TestServiceVAPIDPublicKey(t *testing.T) {
	s := NewService("pub", "priv")
	if s.VAPIDPublicKey() != "pub" {
		t.Errorf("public key = %q, want pub", s.VAPIDPublicKey())
	}
}

func TestNotifierNoServiceIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, nil)
	// Must not panic or touch the nil store.
	n.TaskAssigned(&model.Task{ID: "t1", Title: "Dishes"})

	var nilNotifier *Notifier
	nilNotifier.TaskAssigned(&model.Task{ID: "t1"})
}

func TestNotifierUnassignedTaskIsNoop(t *testing.T) {
	n := NewNotifier(NewService("pub", "priv"), nil, nil)
	n.TaskAssigned(&model.Task{ID: "t1", Title: "Dishes"})
}
