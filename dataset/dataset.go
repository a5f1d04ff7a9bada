// Package dataset loads debate problems from JSON files.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BaSui01/debateflow/types"
)

// Source is an immutable, indexed problem collection.
type Source struct {
	problems []types.Problem
	byID     map[int]types.Problem
}

// Load reads a problem file. The file is a JSON array of problem objects.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return FromReader(f)
}

// FromReader decodes a problem array from r.
func FromReader(r io.Reader) (*Source, error) {
	var problems []types.Problem
	if err := json.NewDecoder(r).Decode(&problems); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	byID := make(map[int]types.Problem, len(problems))
	for _, p := range problems {
		if _, dup := byID[p.ID]; dup {
			return nil, types.NewError(types.ErrConfiguration,
				fmt.Sprintf("dataset has duplicate problem id %d", p.ID))
		}
		byID[p.ID] = p
	}
	return &Source{problems: problems, byID: byID}, nil
}

// Problem returns the problem with the given id.
func (s *Source) Problem(id int) (types.Problem, error) {
	p, ok := s.byID[id]
	if !ok {
		return types.Problem{}, types.NewError(types.ErrProblemNotFound,
			fmt.Sprintf("problem %d not in dataset", id))
	}
	return p, nil
}

// Problems returns every problem in file order. The returned slice is
// shared; callers must not mutate it.
func (s *Source) Problems() []types.Problem {
	return s.problems
}

// ByCategory returns the problems of one category, in file order.
func (s *Source) ByCategory(category string) []types.Problem {
	var out []types.Problem
	for _, p := range s.problems {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Len reports the number of problems.
func (s *Source) Len() int {
	return len(s.problems)
}
