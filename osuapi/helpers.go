package osuapi

import (
	"fmt"
	"io"
)

// Response bodies here are small user objects; a megabyte is plenty.
const maxResponseBytes = 1 << 20

func readAllLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)
	}
	return body, nil
}
