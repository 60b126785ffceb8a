package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeTasks reads a stream of JSON task objects, such as one per line.
func DecodeTasks(r io.Reader) ([]Task, error) {
	var tasks []Task
	decoder := json.NewDecoder(r)
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode task %d: %w", len(tasks)+1, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
