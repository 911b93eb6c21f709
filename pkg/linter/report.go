package linter

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownFormat is returned by Report for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// Output formats understood by Report
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatGitHub     = "github"
	FormatCheckstyle = "checkstyle"
)

// Formats lists the supported output formats
var Formats = []string{FormatText, FormatJSON, FormatGitHub, FormatCheckstyle}

// Report writes results in the named format
func Report(w io.Writer, format string, results []LintResult, summary Summary) error {
	switch format {
	case "", FormatText:
		return WriteText(w, results, summary)
	case FormatJSON:
		return WriteJSON(w, results, summary)
	case FormatGitHub:
		return WriteGitHub(w, results)
	case FormatCheckstyle:
		return WriteCheckstyle(w, results)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteText writes a human readable report followed by the summary
func WriteText(w io.Writer, results []LintResult, summary Summary) error {
	ew := &errWriter{w: w}

	for _, result := range results {
		if len(result.Violations) == 0 {
			continue
		}

		ew.printf("\n%s:\n", result.FilePath)
		for _, v := range result.Violations {
			ew.printf("  %s:%d:%d: [%s] %s (%s)\n",
				result.FilePath,
				v.Position.Line,
				v.Position.Column,
				v.Severity,
				v.Message,
				v.Source(),
			)
		}
	}

	ew.printf("\n")
	ew.printf("Summary:\n")
	ew.printf("  Files:      %d\n", summary.TotalFiles)
	ew.printf("  Violations: %d\n", summary.TotalViolations)
	ew.printf("  Errors:     %d\n", summary.Errors)
	ew.printf("  Warnings:   %d\n", summary.Warnings)
	ew.printf("  Infos:      %d\n", summary.Infos)

	if summary.TotalViolations == 0 {
		ew.printf("\n✓ All files passed linting\n")
	}

	return ew.err
}

// WriteJSON writes results and summary as one indented JSON document
func WriteJSON(w io.Writer, results []LintResult, summary Summary) error {
	if results == nil {
		results = []LintResult{}
	}
	output := struct {
		Results []LintResult `json:"results"`
		Summary Summary      `json:"summary"`
	}{
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// WriteGitHub writes GitHub Actions workflow annotations:
// ::error file={name},line={line},col={col}::{message}
func WriteGitHub(w io.Writer, results []LintResult) error {
	ew := &errWriter{w: w}
	for _, result := range results {
		for _, v := range result.Violations {
			level := "error"
			if v.Severity == SeverityWarning {
				level = "warning"
			} else if v.Severity == SeverityInfo {
				level = "notice"
			}

			ew.printf("::%s file=%s,line=%d,col=%d::%s\n",
				level,
				githubPropertyEscaper.Replace(result.FilePath),
				v.Position.Line,
				v.Position.Column,
				githubDataEscaper.Replace("["+v.Source()+"] "+v.Message),
			)
		}
	}
	return ew.err
}

// Workflow command escaping. Properties also reserve ':' and ','.
var (
	githubDataEscaper = strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
	)
	githubPropertyEscaper = strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
		":", "%3A",
		",", "%2C",
	)
)

type checkstyleReport struct {
	XMLName xml.Name         `xml:"checkstyle"`
	Version string           `xml:"version,attr"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     int    `xml:"line,attr"`
	Column   int    `xml:"column,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// WriteCheckstyle writes a checkstyle XML report
func WriteCheckstyle(w io.Writer, results []LintResult) error {
	report := checkstyleReport{Version: "4.3"}
	for _, result := range results {
		file := checkstyleFile{Name: result.FilePath}
		for _, v := range result.Violations {
			file.Errors = append(file.Errors, checkstyleError{
				Line:     v.Position.Line,
				Column:   v.Position.Column,
				Severity: string(v.Severity),
				Message:  v.Message,
				Source:   v.Source(),
			})
		}
		report.Files = append(report.Files, file)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// errWriter keeps the first write error so report code can print freely
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
