// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/selection"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the home directory.
	// When empty, resolution falls through to SEARCHCTX_HOME env var → persisted config → ~/.searchctx.
	Home string
	// Verbose enables debug logging.
	Verbose bool
}

// PrintContext writes a one-line summary of sc.
func PrintContext(w io.Writer, sc *models.SearchContext) {
	var flags []string
	if sc.AutoDefined {
		flags = append(flags, "auto")
	}
	if !sc.Public {
		flags = append(flags, "private")
	}
	if sc.ViewerCanManage {
		flags = append(flags, "manage")
	}
	line := selection.LabelFor(sc.Spec()).String()
	if len(flags) > 0 {
		line += " [" + strings.Join(flags, ",") + "]"
	}
	if sc.Description != "" {
		line += "  " + sc.Description
	}
	fmt.Fprintln(w, line)
}

// PrintDetail writes sc with its repositories.
func PrintDetail(w io.Writer, sc *models.SearchContext) {
	fmt.Fprintf(w, "Spec: %s\n", sc.Spec())
	if sc.ID != "" {
		fmt.Fprintf(w, "ID: %s\n", sc.ID)
	}
	if sc.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", sc.Description)
	}
	fmt.Fprintf(w, "Public: %v\n", sc.Public)
	fmt.Fprintf(w, "Can manage: %v\n", sc.ViewerCanManage)
	fmt.Fprintf(w, "Repositories: %d\n", len(sc.Repositories))
	for _, r := range sc.Repositories {
		if len(r.Revisions) == 0 {
			fmt.Fprintf(w, "  %s\n", r.Repository)
			continue
		}
		fmt.Fprintf(w, "  %s@%s\n", r.Repository, strings.Join(r.Revisions, ","))
	}
}
