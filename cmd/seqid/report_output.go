package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/LdDl/mot-seqid/seqid"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func printReport(w io.Writer, report *seqid.Report) {
	quality := report.Quality
	fmt.Fprintf(w, "Run %s\n", report.RunID)
	fmt.Fprintf(w, "Frames: %d (%d..%d)\n", report.FramesProcessed, report.FirstFrame, report.LastFrame)
	fmt.Fprintf(w, "Observations: %d accepted, %d below confidence, %d duplicates\n",
		report.ObservationsAccepted, report.ObservationsFiltered, report.DuplicatesDiscarded)
	fmt.Fprintf(w, "Sequential ids: %d minted, %d final, %d merges, %d recoveries\n",
		quality.SequentialIDsMinted, quality.FinalTracks, len(report.Merges), report.Recoveries)
	fmt.Fprintf(w, "Quality: %.1f (%s)\n", quality.CompositeScore, colorRating(quality.Rating, shouldColorize(w)))

	final := report.FinalTracks()
	if len(final) == 0 {
		fmt.Fprintln(w, "No tracks")
		return
	}
	rows := make([][]string, 0, len(final))
	for _, track := range final {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", track.SequentialID),
			track.Status.String(),
			joinRawIDs(track.RawIDs),
			fmt.Sprintf("%d-%d", track.FirstFrame, track.LastFrame),
			strconv.Itoa(track.Duration),
			fmt.Sprintf("%.1f", track.DurationSeconds),
			string(track.Band),
			strconv.Itoa(track.Recoveries),
			joinIDs(track.Absorbed),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Status", "Raw IDs", "Frames", "Observed", "Seconds", "Band", "Recoveries", "Absorbed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func joinRawIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func colorRating(rating seqid.Rating, colorize bool) string {
	if !colorize {
		return string(rating)
	}
	color := ""
	switch rating {
	case seqid.RatingExcellent, seqid.RatingGood:
		color = ansiGreen
	case seqid.RatingFair:
		color = ansiYellow
	case seqid.RatingPoor:
		color = ansiRed
	}
	if color == "" {
		return string(rating)
	}
	return color + string(rating) + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
