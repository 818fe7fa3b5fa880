package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"loom/internal/types"
)

const version = "dev"

func printSessions(output io.Writer, sessions []*types.PipelineSession) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSTATUS\tPHASE\tTITLE")
	for _, session := range sessions {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", session.ID, session.Status, session.CurrentPhase, session.Title)
	}
	_ = writer.Flush()
}

func printCachedSessions(output io.Writer, snapshots []*types.SessionSnapshot) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSTATUS\tSTAGE\tUPDATED")
	for _, snapshot := range snapshots {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", snapshot.SessionID, snapshot.Status, snapshot.Stage, snapshot.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = writer.Flush()
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	revision := ""
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	if dirty {
		return revision + "-dirty"
	}
	return revision
}
