// Command seqid turns raw detector/tracker output into stable sequential identities.
//
// Usage:
//
//	seqid run --input detections.csv --assignments ids.csv --plot trails.png
//	seqid runs list
//	seqid runs show <run-id> --json
//	seqid config init
package main
