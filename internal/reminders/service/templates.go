package service

import (
	"fmt"
	"strings"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/reminders/repository"
)

// MessageContext carries everything a template can interpolate.
type MessageContext struct {
	Contact      contactrepo.Contact
	SessionDate  time.Time
	PlayerNames  []string
	Ordinal      int // session N of package, 0 when not packaged
	PackageTotal int
	FirstSession bool
	DeepLink     string
	Zone         *time.Location
}

// MessageBuilder renders the outbound body for one reminder type. Each type
// gets its own builder so a template's data needs stay explicit and testable.
type MessageBuilder interface {
	Build(mc MessageContext) string
}

// BuilderFunc adapts a function to the MessageBuilder interface.
type BuilderFunc func(mc MessageContext) string

// Build renders the message body.
func (f BuilderFunc) Build(mc MessageContext) string { return f(mc) }

func defaultTemplates() map[repository.ReminderType]MessageBuilder {
	return map[repository.ReminderType]MessageBuilder{
		repository.TypeSession48h: BuilderFunc(func(mc MessageContext) string {
			return withDeepLink(fmt.Sprintf("Hi %s! %s %s coming up %s. Reply here if anything changed.",
				mc.Contact.FirstName, possessivePlayers(mc), sessionNoun(mc), localSchedule(mc)), mc)
		}),
		repository.TypeSession24h: BuilderFunc(func(mc MessageContext) string {
			return withDeepLink(fmt.Sprintf("Hi %s, quick reminder: %s %s is tomorrow, %s.%s",
				mc.Contact.FirstName, possessivePlayers(mc), sessionNoun(mc), localSchedule(mc), packagedCounter(mc)), mc)
		}),
		repository.TypeSession6h: BuilderFunc(func(mc MessageContext) string {
			return withDeepLink(fmt.Sprintf("Hi %s, see you today at %s for %s %s!",
				mc.Contact.FirstName, localClock(mc), possessivePlayers(mc), sessionNoun(mc)), mc)
		}),
		repository.TypeSessionStart: BuilderFunc(func(mc MessageContext) string {
			return fmt.Sprintf("Hi %s, we're getting started with %s now. Pickup is at %s.",
				mc.Contact.FirstName, joinNames(mc.PlayerNames), localClockAfter(mc, time.Hour))
		}),
		repository.TypeCoachSessionStart: BuilderFunc(func(mc MessageContext) string {
			return fmt.Sprintf("Coach: first session with %s (%s) starts now.",
				joinNames(mc.PlayerNames), mc.Contact.FirstName)
		}),
		repository.TypeCoachSessionPlus60m: BuilderFunc(func(mc MessageContext) string {
			return fmt.Sprintf("Coach: wrap up with %s and check in with %s about a package.",
				joinNames(mc.PlayerNames), mc.Contact.FirstName)
		}),
		repository.TypeParentSessionPlus120m: BuilderFunc(func(mc MessageContext) string {
			return withDeepLink(fmt.Sprintf("Hi %s, thanks for coming in with %s today! How did it go?",
				mc.Contact.FirstName, joinNames(mc.PlayerNames)), mc)
		}),
	}
}

func sessionNoun(mc MessageContext) string {
	if mc.FirstSession {
		return "first session"
	}
	return "session"
}

// possessivePlayers renders "Ava's" / "Ava and Sam's", falling back to "your".
func possessivePlayers(mc MessageContext) string {
	joined := joinNames(mc.PlayerNames)
	if joined == "" {
		return "your"
	}
	return joined + "'s"
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func localSchedule(mc MessageContext) string {
	return mc.SessionDate.In(mc.Zone).Format("Monday at 3:04 PM")
}

func localClock(mc MessageContext) string {
	return mc.SessionDate.In(mc.Zone).Format("3:04 PM")
}

func localClockAfter(mc MessageContext, d time.Duration) string {
	return mc.SessionDate.Add(d).In(mc.Zone).Format("3:04 PM")
}

// packagedCounter renders " Session N of M." for packaged sessions.
func packagedCounter(mc MessageContext) string {
	if mc.Ordinal < 1 || mc.PackageTotal < 1 {
		return ""
	}
	return fmt.Sprintf(" Session %d of %d.", mc.Ordinal, mc.PackageTotal)
}

func withDeepLink(body string, mc MessageContext) string {
	if mc.DeepLink == "" {
		return body
	}
	return body + " " + mc.DeepLink
}
