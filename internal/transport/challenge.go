package transport

import (
	"context"
	"regexp"
	"strconv"
)

const challengeCookie = "KEY"

var challengeRegex = regexp.MustCompile(`(?s)go\(\).*?\{(.*?)n=l.*?KEY.*?s\+":(\d+):`)

// Challenge is an inline anti-automation puzzle: a fragment of arithmetic
// logic and the numeric offset it has to be evaluated against.
type Challenge struct {
	Logic  string
	Offset int
}

// FindChallenge reports whether body embeds a challenge.
func FindChallenge(body []byte) (Challenge, bool) {
	groups := challengeRegex.FindSubmatch(body)
	if len(groups) < 3 {
		return Challenge{}, false
	}
	offset, err := strconv.Atoi(string(groups[2]))
	if err != nil {
		return Challenge{}, false
	}
	return Challenge{Logic: string(groups[1]), Offset: offset}, true
}

// ChallengeSolver evaluates the logic of a challenge and returns the token
// the platform expects back.
type ChallengeSolver interface {
	Solve(ctx context.Context, logic string, offset int) (string, error)
}

type ChallengeSolverFunc func(ctx context.Context, logic string, offset int) (string, error)

func (f ChallengeSolverFunc) Solve(ctx context.Context, logic string, offset int) (string, error) {
	return f(ctx, logic, offset)
}
