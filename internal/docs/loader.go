// Package docs assembles the registrar reference material fed into the
// system instruction.
//
// The material is deliberately one flat string: there is no retrieval or
// chunking in this service, the whole blob rides along in every prompt.
package docs

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Placeholder is used when the documents directory does not exist, so the
// assistant still announces what it knows from the built-in fact sheet.
const Placeholder = "(aucun document PDF chargé)"

// FactSheet is the built-in registrar information used when no PDF
// documents are provided.
const FactSheet = `=== INFORMATIONS OFFICIELLES TSM (année 2025-2026) ===
DATES CLÉS :
- Candidatures L1/L2/L3 : via Parcoursup → 15 janvier au 13 mars 2025
- Candidatures Master : via MonMaster → 24 février au 24 mars 2025
- Inscriptions administratives : 1er au 15 septembre 2025 sur ENT
- Examens session 1 : décembre 2025 & mai-juin 2026
- Rattrapages : fin août 2026
CONTACTS : scolarite@tsm-education.fr | contact@tsm-education.fr
`

// Load reads every *.pdf file in dir and concatenates the extracted text
// with per-file headers, appended after the built-in fact sheet.
//
// Failures are never fatal: a missing directory yields the fact sheet and
// a placeholder note, and a file that cannot be parsed is recorded inline
// as an error note so the remaining documents still load.
func Load(dir string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := pdfNames(dir)
	if err != nil {
		logger.Warn("documents directory unavailable", "dir", dir, "error", err)
		return FactSheet + "\n" + Placeholder
	}

	var b strings.Builder
	b.WriteString(FactSheet)
	for _, name := range names {
		path := filepath.Join(dir, name)
		text, err := extractText(path)
		if err != nil {
			// Annotate and continue: one bad file must not abort startup.
			logger.Warn("failed to extract document", "file", name, "error", err)
			fmt.Fprintf(&b, "\n=== %s ===\n(document illisible : %v)\n", name, err)
			continue
		}
		logger.Info("document loaded", "file", name, "chars", len(text))
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", name, text)
	}
	return b.String()
}

// pdfNames lists the *.pdf entries of dir in stable order.
func pdfNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading documents directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
