// Package logtail reads the end of tally's log file and highlights it for the
// terminal.
//
// The dashboard owns stderr, so it logs to a file instead. `tally logs`
// prints the tail of that file:
//
//	lines, err := logtail.Read(path, 200)
//	if err != nil {
//		return err
//	}
//	for _, line := range logtail.ColorizeLines(lines) {
//		fmt.Println(line)
//	}
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded for
// large files. ColorizeLine understands the key=value lines written by
// slog.TextHandler and leaves anything else untouched.
package logtail
