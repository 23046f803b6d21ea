package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	JobKind        = "job"
	AssignmentKind = "assignment"
	ReaderKind     = "reader"
)

var pluralKinds = map[string]string{
	JobKind:        "jobs",
	AssignmentKind: "assignments",
	ReaderKind:     "readers",
}

func parseAndValidateKindId(arg string) (string, string, error) {
	kind, id, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return "", "", fmt.Errorf("invalid %s id: %s", kind, id)
		}
	}
	return kind, id, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}
