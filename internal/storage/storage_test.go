package storage

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "invoice.pdf", "invoice.pdf"},
		{"spaces", "счет на оплату.pdf", "счет_на_оплату.pdf"},
		{"path stripped", "/tmp/secret/../invoice.pdf", "invoice.pdf"},
		{"special characters removed", "отчет#2024?.xlsx", "отчет2024.xlsx"},
		{"percent removed", "скан 100%.jpg", "скан_100.jpg"},
		{"backslash replaced", "a\\b.txt", "a_b.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestObjectPath(t *testing.T) {
	got := ObjectPath("attachments", "invoices", "мой счет.pdf")

	if !strings.HasPrefix(got, "attachments/invoices/") {
		t.Errorf("ObjectPath() = %q, want attachments/invoices/ prefix", got)
	}
	if !strings.HasSuffix(got, "_мой_счет.pdf") {
		t.Errorf("ObjectPath() = %q, want sanitized filename suffix", got)
	}

	// The collision guard is a 20060102T150405 timestamp prefix
	re := regexp.MustCompile(`^attachments/invoices/\d{8}T\d{6}_`)
	if !re.MatchString(got) {
		t.Errorf("ObjectPath() = %q, missing timestamp prefix", got)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	ctx := context.Background()

	content := "содержимое счета"
	storagePath, size, err := store.Upload(ctx, "attachments", "invoices", "счет.pdf", "application/pdf", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Upload() size = %d, want %d", size, len(content))
	}

	rc, err := store.Download(ctx, storagePath)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != content {
		t.Errorf("Download() = %q, want %q", data, content)
	}

	if err := store.Delete(ctx, storagePath); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Download(ctx, storagePath); err == nil {
		t.Error("Download() after Delete() should fail")
	}

	// Deleting twice is not an error
	if err := store.Delete(ctx, storagePath); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}
}
