package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/saiid2001/vsf-analyzer/internal/queue"
)

// ReadCandidatePairsFile streams newline-delimited JSON-encoded
// CandidatePair records from path, for offline batch runs that don't go
// through Kafka. Each line is decoded independently so a single malformed
// line surfaces on the error channel without stopping the scan.
func ReadCandidatePairsFile(ctx context.Context, path string) (<-chan queue.CandidatePair, <-chan error) {
	out := make(chan queue.CandidatePair)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		file, err := os.Open(path)
		if err != nil {
			errc <- err
			close(errc)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if line == "" {
				continue
			}
			var pair queue.CandidatePair
			if err := json.Unmarshal([]byte(line), &pair); err != nil {
				errc <- fmt.Errorf("line %d: %w", lineNo, err)
				continue
			}
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				close(errc)
				return
			case out <- pair:
			}
		}

		if err := scanner.Err(); err != nil {
			errc <- err
		}
		close(errc)
	}()

	return out, errc
}
