package analyzers

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
)

func newAttachmentAnalyzer(t *testing.T, params core.PolicyParams) *AttachmentAnalyzer {
	t.Helper()
	if params.DangerousExtensions == nil {
		params.DangerousExtensions = []string{".exe", ".bat", ".js"}
	}
	return NewAttachmentAnalyzer(core.NewPolicy(params), zap.NewNop())
}

// buildZip produces an in-memory archive from name -> content pairs.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func attachmentMessage(atts ...core.AttachmentRef) *core.ParsedMessage {
	return &core.ParsedMessage{Attachments: atts}
}

func TestAttachmentDangerousExtension(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "Invoice.EXE",
		DeclaredContentType: "application/octet-stream",
		Content:             []byte("MZ..."),
	})

	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeDangerousExtension, found[0].Code)
	assert.Equal(t, core.CategoryAttachment, found[0].Category)
}

func TestAttachmentTypeExtensionMismatch(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "statement.pdf",
		DeclaredContentType: "text/html; charset=utf-8",
		Content:             []byte("<html>"),
	})

	found := codes(a.Analyze(msg))
	assert.Contains(t, found, core.CodeTypeExtensionMismatch)
}

func TestAttachmentOctetStreamDeclaredTypeIsTolerated(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "statement.pdf",
		DeclaredContentType: "application/octet-stream",
		Content:             []byte("%PDF-1.7"),
	})

	assert.Empty(t, a.Analyze(msg))
}

func TestAttachmentExecutableInZip(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	data := buildZip(t, map[string][]byte{
		"docs/readme.txt": []byte("hello"),
		"invoice.exe":     []byte("MZ..."),
	})
	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "invoice.zip",
		DeclaredContentType: "application/zip",
		Content:             data,
		Size:                int64(len(data)),
	})

	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeExecutableInZip, found[0].Code)
	assert.Contains(t, found[0].Description, "invoice.exe")
}

func TestAttachmentRenamedZipDetectedBySignature(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	data := buildZip(t, map[string][]byte{"payload.exe": []byte("MZ...")})
	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "holiday-photos.jpg",
		DeclaredContentType: "image/jpeg",
		Content:             data,
	})

	found := codes(a.Analyze(msg))
	assert.Contains(t, found, core.CodeTypeExtensionMismatch)
	assert.Contains(t, found, core.CodeExecutableInZip)
}

func TestAttachmentNestedZip(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	inner := buildZip(t, map[string][]byte{"dropper.js": []byte("evil()")})
	outer := buildZip(t, map[string][]byte{"wrapped.zip": inner})
	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "bundle.zip",
		DeclaredContentType: "application/zip",
		Content:             outer,
	})

	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeExecutableInZip, found[0].Code)
	assert.Contains(t, found[0].Description, "dropper.js")
}

func TestAttachmentArchiveEntryGuard(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{
		Archive: core.ArchiveLimits{MaxEntries: 2, MaxTotalBytes: 1 << 20, MaxDepth: 2},
	})

	data := buildZip(t, map[string][]byte{
		"a.txt": []byte("a"),
		"b.txt": []byte("b"),
		"c.txt": []byte("c"),
	})
	msg := attachmentMessage(core.AttachmentRef{
		Filename: "many.zip",
		Content:  data,
	})

	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeArchiveTooLarge, found[0].Code)
}

func TestAttachmentArchiveSizeGuardStopsDecompression(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{
		Archive: core.ArchiveLimits{MaxEntries: 100, MaxTotalBytes: 16, MaxDepth: 2},
	})

	big := bytes.Repeat([]byte("x"), 1024)
	data := buildZip(t, map[string][]byte{
		"big1.bin": big,
		"big2.bin": big,
	})
	msg := attachmentMessage(core.AttachmentRef{
		Filename: "bomb.zip",
		Content:  data,
	})

	// Exactly one finding even though two entries exceed the budget.
	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeArchiveTooLarge, found[0].Code)
}

func TestAttachmentForgedZip64SizeTripsBudget(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{
		Archive: core.ArchiveLimits{MaxEntries: 100, MaxTotalBytes: 16, MaxDepth: 2},
	})

	// A directory entry declaring an absurd uncompressed size must count
	// against the budget rather than wrap it negative.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "huge.bin",
		Method:             zip.Store,
		UncompressedSize64: 1<<63 + 1<<62,
		CompressedSize64:   4,
	})
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	big, err := zw.Create("big.bin")
	require.NoError(t, err)
	_, err = big.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	msg := attachmentMessage(core.AttachmentRef{
		Filename: "forged.zip",
		Content:  buf.Bytes(),
	})

	found := a.Analyze(msg)
	require.Len(t, found, 1)
	assert.Equal(t, core.CodeArchiveTooLarge, found[0].Code)
}

func TestAttachmentCorruptArchive(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "broken.zip",
		DeclaredContentType: "application/zip",
		Content:             []byte("PK\x03\x04 but nothing else that makes sense"),
	})

	found := codes(a.Analyze(msg))
	assert.Contains(t, found, core.CodeArchiveUnreadable)
}

func TestAttachmentCleanZip(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})

	data := buildZip(t, map[string][]byte{"report.txt": []byte("quarterly numbers")})
	msg := attachmentMessage(core.AttachmentRef{
		Filename:            "report.zip",
		DeclaredContentType: "application/zip",
		Content:             data,
	})

	assert.Empty(t, a.Analyze(msg))
}

func TestAttachmentNoAttachments(t *testing.T) {
	a := newAttachmentAnalyzer(t, core.PolicyParams{})
	assert.Empty(t, a.Analyze(&core.ParsedMessage{}))
}
