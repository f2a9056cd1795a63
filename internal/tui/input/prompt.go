// Package input parses the TUI prompt line.
package input

import (
	"errors"
	"fmt"
	"strings"

	"github.com/javiermolinar/skigrid/internal/schedule"
)

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Description string
}

// PromptMatchingCommands returns commands that match the current input prefix.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}
	if strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(strings.TrimSpace(input))
	matches := make([]PromptCommand, 0, len(commands))
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete returns the first matching command and whether it exists.
func PromptAutocomplete(input string, commands []PromptCommand) (string, bool) {
	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}

// AutocompleteLast completes the last word of input when it is a command prefix.
func AutocompleteLast(input string, commands []PromptCommand) (string, bool) {
	i := strings.LastIndex(input, " ")
	head, last := input[:i+1], input[i+1:]
	completed, ok := PromptAutocomplete(last, commands)
	if !ok {
		return input, false
	}
	return head + completed, true
}

// ErrUnknownCommand is returned for a slash command the prompt does not know.
var ErrUnknownCommand = errors.New("unknown command")

// BookingCommands are the slash commands of the booking prompt.
var BookingCommands = []PromptCommand{
	{Name: "/private", Description: "One-to-one lesson (default)"},
	{Name: "/group", Description: "Group course"},
	{Name: "/paid", Description: "Mark the lesson as paid"},
}

// AbsenceCommands are the slash commands of the absence prompt.
var AbsenceCommands = []PromptCommand{
	{Name: "/vacation", Description: "Vacation (default)"},
	{Name: "/sick", Description: "Sick leave"},
	{Name: "/dayoff", Description: "Day off"},
	{Name: "/other", Description: "Other reason"},
}

// BookingRequest is a parsed booking prompt.
type BookingRequest struct {
	Kind        schedule.BookingKind
	Paid        bool
	Participant string
}

// AbsenceRequest is a parsed absence prompt.
type AbsenceRequest struct {
	Kind   schedule.AbsenceKind
	Reason string
}

// ParseBooking reads "[/group|/private] [/paid] participant name".
// Commands may appear anywhere; the remaining words form the participant.
func ParseBooking(input string) (BookingRequest, error) {
	req := BookingRequest{Kind: schedule.BookingPrivate}
	var words []string
	for _, f := range strings.Fields(input) {
		if !strings.HasPrefix(f, "/") {
			words = append(words, f)
			continue
		}
		switch strings.ToLower(f) {
		case "/private":
			req.Kind = schedule.BookingPrivate
		case "/group":
			req.Kind = schedule.BookingGroup
		case "/paid":
			req.Paid = true
		default:
			return BookingRequest{}, fmt.Errorf("%w %q", ErrUnknownCommand, f)
		}
	}
	req.Participant = strings.Join(words, " ")
	return req, nil
}

// ParseAbsence reads "[/vacation|/sick|/dayoff|/other] reason".
func ParseAbsence(input string) (AbsenceRequest, error) {
	req := AbsenceRequest{Kind: schedule.AbsenceVacation}
	var words []string
	for _, f := range strings.Fields(input) {
		if !strings.HasPrefix(f, "/") {
			words = append(words, f)
			continue
		}
		switch strings.ToLower(f) {
		case "/vacation":
			req.Kind = schedule.AbsenceVacation
		case "/sick":
			req.Kind = schedule.AbsenceSickLeave
		case "/dayoff":
			req.Kind = schedule.AbsenceDayOff
		case "/other":
			req.Kind = schedule.AbsenceOther
		default:
			return AbsenceRequest{}, fmt.Errorf("%w %q", ErrUnknownCommand, f)
		}
	}
	req.Reason = strings.Join(words, " ")
	return req, nil
}
