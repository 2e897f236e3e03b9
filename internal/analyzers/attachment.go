package analyzers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
)

var zipSignatures = [][]byte{
	{'P', 'K', 0x03, 0x04},
	{'P', 'K', 0x05, 0x06}, // empty archive
	{'P', 'K', 0x07, 0x08}, // spanned archive
}

// AttachmentAnalyzer classifies attachments by extension and content and
// inspects zip archives in memory. Nothing is ever written to disk.
type AttachmentAnalyzer struct {
	policy *core.Policy
	logger *zap.Logger
}

// NewAttachmentAnalyzer creates an attachment analyzer bound to a policy.
func NewAttachmentAnalyzer(policy *core.Policy, logger *zap.Logger) *AttachmentAnalyzer {
	return &AttachmentAnalyzer{
		policy: policy,
		logger: logger,
	}
}

// Category implements core.Analyzer.
func (a *AttachmentAnalyzer) Category() core.Category {
	return core.CategoryAttachment
}

// Analyze implements core.Analyzer.
func (a *AttachmentAnalyzer) Analyze(msg *core.ParsedMessage) []core.Finding {
	var findings []core.Finding
	for _, att := range msg.Attachments {
		findings = append(findings, a.inspect(att)...)
	}
	return findings
}

func (a *AttachmentAnalyzer) inspect(att core.AttachmentRef) []core.Finding {
	ext := strings.ToLower(filepath.Ext(att.Filename))
	isZip := looksLikeZip(att.Content)

	// Classification provenance, precedence: signature > extension >
	// declared type.
	source := "unknown"
	switch {
	case isZip:
		source = "by signature"
	case ext != "":
		source = "by extension"
	case att.DeclaredContentType != "":
		source = "by declared type"
	}

	var findings []core.Finding
	add := func(code, format string, args ...any) {
		findings = append(findings, core.Finding{
			Category:    core.CategoryAttachment,
			Code:        code,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if a.policy.IsDangerousExtension(ext) {
		add(core.CodeDangerousExtension,
			"attachment %q has dangerous extension %s (classified %s)", att.Filename, ext, source)
	}

	if code, desc := a.typeMismatch(att, ext, isZip); code != "" {
		add(code, "%s", desc)
	}

	if isZip {
		findings = append(findings, a.inspectZip(att)...)
	}

	return findings
}

// typeMismatch compares the declared Content-Type against what the
// extension (or the content signature, which outranks it) implies.
func (a *AttachmentAnalyzer) typeMismatch(att core.AttachmentRef, ext string, isZip bool) (string, string) {
	if isZip && ext != "" && ext != ".zip" {
		return core.CodeTypeExtensionMismatch,
			fmt.Sprintf("attachment %q is a zip archive by signature but carries extension %s", att.Filename, ext)
	}

	declared := att.DeclaredContentType
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	// application/octet-stream is the generic "no idea" type; comparing
	// against it would flag nearly every legitimate attachment.
	if declared == "" || declared == "application/octet-stream" {
		return "", ""
	}

	expected := mime.TypeByExtension(ext)
	if mediaType, _, err := mime.ParseMediaType(expected); err == nil {
		expected = mediaType
	}
	if expected == "" {
		return "", ""
	}

	if majorType(declared) != majorType(expected) {
		return core.CodeTypeExtensionMismatch,
			fmt.Sprintf("attachment %q declares %q but extension %s implies %q (classified by extension)",
				att.Filename, declared, ext, expected)
	}
	return "", ""
}

func majorType(mediaType string) string {
	if idx := strings.Index(mediaType, "/"); idx > 0 {
		return mediaType[:idx]
	}
	return mediaType
}

func looksLikeZip(content []byte) bool {
	for _, sig := range zipSignatures {
		if bytes.HasPrefix(content, sig) {
			return true
		}
	}
	return false
}

// zipWalk carries the shared decompression budget through nested archive
// inspection of a single attachment.
type zipWalk struct {
	policy      *core.Policy
	entriesLeft int
	bytesLeft   int64

	execEntry  string
	tooLarge   bool
	unreadable string
}

// inspectZip reads the archive's central directory in memory. Entry names
// are checked for dangerous extensions; nested zips are decompressed in
// memory only, bounded by the policy's entry/byte/depth budget. Exceeding
// the budget stops decompression and yields exactly one ARCHIVE_TOO_LARGE
// finding; corrupt archives degrade to ARCHIVE_UNREADABLE.
func (a *AttachmentAnalyzer) inspectZip(att core.AttachmentRef) []core.Finding {
	walk := &zipWalk{
		policy:      a.policy,
		entriesLeft: a.policy.Archive.MaxEntries,
		bytesLeft:   a.policy.Archive.MaxTotalBytes,
	}
	walk.descend(att.Filename, att.Content, a.policy.Archive.MaxDepth)

	var findings []core.Finding
	add := func(code, format string, args ...any) {
		findings = append(findings, core.Finding{
			Category:    core.CategoryAttachment,
			Code:        code,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if walk.unreadable != "" {
		add(core.CodeArchiveUnreadable, "archive %q could not be read: %s", att.Filename, walk.unreadable)
	}
	if walk.tooLarge {
		add(core.CodeArchiveTooLarge,
			"archive %q exceeds the in-memory inspection budget; decompression stopped", att.Filename)
	}
	if walk.execEntry != "" {
		add(core.CodeExecutableInZip,
			"archive %q contains dangerous entry %q", att.Filename, walk.execEntry)
	}

	a.logger.Debug("Archive inspected",
		zap.String("filename", att.Filename),
		zap.Bool("too_large", walk.tooLarge),
		zap.String("dangerous_entry", walk.execEntry))
	return findings
}

func (w *zipWalk) descend(name string, data []byte, depthLeft int) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if w.unreadable == "" {
			w.unreadable = fmt.Sprintf("%s: %v", name, err)
		}
		return
	}

	for _, entry := range zr.File {
		if w.tooLarge || w.execEntry != "" {
			return
		}

		w.entriesLeft--
		if w.entriesLeft < 0 {
			w.tooLarge = true
			return
		}
		// The declared size comes straight off the wire; a forged zip64
		// value must exhaust the budget, never wrap it negative.
		if entry.UncompressedSize64 > uint64(w.bytesLeft) {
			w.tooLarge = true
			return
		}
		w.bytesLeft -= int64(entry.UncompressedSize64)

		ext := strings.ToLower(filepath.Ext(entry.Name))
		if w.policy.IsDangerousExtension(ext) {
			w.execEntry = entry.Name
			return
		}

		if depthLeft > 1 && !entry.FileInfo().IsDir() {
			w.descendNested(entry, depthLeft-1)
		}
	}
}

// descendNested decompresses one entry in memory far enough to tell
// whether it is itself a zip archive, and recurses if so.
func (w *zipWalk) descendNested(entry *zip.File, depthLeft int) {
	rc, err := entry.Open()
	if err != nil {
		if w.unreadable == "" {
			w.unreadable = fmt.Sprintf("%s: %v", entry.Name, err)
		}
		return
	}
	defer rc.Close()

	sig := make([]byte, 4)
	n, err := io.ReadFull(rc, sig)
	if err != nil || !looksLikeZip(sig[:n]) {
		return
	}

	rest, err := io.ReadAll(io.LimitReader(rc, w.bytesLeft))
	if err != nil {
		if w.unreadable == "" {
			w.unreadable = fmt.Sprintf("%s: %v", entry.Name, err)
		}
		return
	}
	w.descend(entry.Name, append(sig[:n], rest...), depthLeft)
}
