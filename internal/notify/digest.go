package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

// MatchInsight is one digest line item: a major match enriched with
// head-to-head stats, the likely next opponent, and the favored side.
type MatchInsight struct {
	Match        tennis.Match
	H2H          *tennis.H2HStats
	NextOpponent *tennis.Match
	Favorite     tennis.Side
}

// BuildInsights filters the day's matches to majors, sorts them by time,
// and enriches each with supplementary stats. Head-to-head lookups that
// fail are simply omitted.
func BuildInsights(ctx context.Context, src tennis.Source, matches []tennis.Match) []MatchInsight {
	var majors []tennis.Match
	for _, m := range matches {
		if tennis.IsMajorMatch(m) {
			majors = append(majors, m)
		}
	}
	tennis.SortSchedule(majors)

	insights := make([]MatchInsight, 0, len(majors))
	for _, m := range majors {
		h2h, _ := src.HeadToHead(ctx, m.HomePlayer.Name, m.AwayPlayer.Name)
		insights = append(insights, MatchInsight{
			Match:        m,
			H2H:          h2h,
			NextOpponent: tennis.PotentialNextOpponent(matches, m),
			Favorite:     tennis.MatchFavorite(m),
		})
	}
	return insights
}

// DigestSubject is the daily email subject line.
func DigestSubject(day time.Time) string {
	return fmt.Sprintf("🎾 Your Tennis Schedule for %s", day.Format("January 2, 2006"))
}

// isFavoriteMatch matches a user's favorite-player list against both sides,
// same rule the reminder filter uses.
func isFavoriteMatch(m tennis.Match, favorites []string) bool {
	return tennis.InvolvesFavorite(m, favorites)
}

// DigestText renders the plain-text daily schedule body.
func DigestText(insights []MatchInsight, favorites []string) string {
	var b strings.Builder
	b.WriteString("Today's Major Tennis Matches\n\n")

	if len(insights) == 0 {
		b.WriteString("No major matches scheduled for today.\n")
		return b.String()
	}

	for _, in := range insights {
		m := in.Match
		star := ""
		if isFavoriteMatch(m, favorites) {
			star = " ⭐"
		}
		fmt.Fprintf(&b, "%s - %s (%s)%s\n",
			m.ScheduledTime.Format("15:04"), m.Tournament.Name, m.Round, star)
		fmt.Fprintf(&b, "%s #%d vs %s #%d\n",
			m.HomePlayer.Name, m.HomePlayer.Ranking,
			m.AwayPlayer.Name, m.AwayPlayer.Ranking)
		fmt.Fprintf(&b, "Surface: %s\n", m.Tournament.Surface)

		if in.H2H != nil {
			fmt.Fprintf(&b, "Head-to-Head: %d-%d\n", in.H2H.HomeWins, in.H2H.AwayWins)
			if in.H2H.LastMatch != nil {
				fmt.Fprintf(&b, "Last match: %s (Winner: %s)\n",
					in.H2H.LastMatch.Date, in.H2H.LastMatch.Winner)
			}
		}
		if in.Favorite != tennis.SideEven {
			name := m.HomePlayer.Name
			if in.Favorite == tennis.SideAway {
				name = m.AwayPlayer.Name
			}
			fmt.Fprintf(&b, "Favorite: %s\n", name)
		}
		if in.NextOpponent != nil {
			fmt.Fprintf(&b, "Potential next opponent: %s vs %s\n",
				in.NextOpponent.HomePlayer.Name, in.NextOpponent.AwayPlayer.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("You're receiving this because daily schedule notifications are enabled.\n")
	return b.String()
}

// DigestHTML renders the HTML alternative of the daily schedule.
func DigestHTML(insights []MatchInsight, favorites []string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h1 style="color: #1a73e8; text-align: center;">Today's Major Tennis Matches</h1>`)

	if len(insights) == 0 {
		b.WriteString(`<p style="text-align: center;">No major matches scheduled for today.</p></div>`)
		return b.String()
	}

	for _, in := range insights {
		m := in.Match
		border := ""
		star := ""
		if isFavoriteMatch(m, favorites) {
			border = "border: 2px solid #1a73e8;"
			star = " ⭐"
		}
		fmt.Fprintf(&b, `<div style="margin-bottom: 20px; padding: 15px; background-color: #f8f9fa; border-radius: 8px; %s">`, border)
		fmt.Fprintf(&b, `<div style="font-weight: bold; color: #1a73e8;">%s - %s (%s)%s</div>`,
			m.ScheduledTime.Format("15:04"), m.Tournament.Name, m.Round, star)
		fmt.Fprintf(&b, `<div>%s <span style="color: #666;">#%d</span> vs %s <span style="color: #666;">#%d</span></div>`,
			m.HomePlayer.Name, m.HomePlayer.Ranking,
			m.AwayPlayer.Name, m.AwayPlayer.Ranking)
		fmt.Fprintf(&b, `<div style="color: #666; font-size: 0.9em;">Surface: %s</div>`, m.Tournament.Surface)
		if in.H2H != nil {
			fmt.Fprintf(&b, `<div style="font-size: 0.9em; color: #666;"><strong>Head-to-Head:</strong> %d-%d</div>`,
				in.H2H.HomeWins, in.H2H.AwayWins)
		}
		if in.Favorite != tennis.SideEven {
			name := m.HomePlayer.Name
			if in.Favorite == tennis.SideAway {
				name = m.AwayPlayer.Name
			}
			fmt.Fprintf(&b, `<div style="font-size: 0.9em; color: #1a73e8;">Favorite: %s</div>`, name)
		}
		if in.NextOpponent != nil {
			fmt.Fprintf(&b, `<div style="font-size: 0.9em; color: #666;"><strong>Potential Next Opponent:</strong> %s vs %s</div>`,
				in.NextOpponent.HomePlayer.Name, in.NextOpponent.AwayPlayer.Name)
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`<div style="text-align: center; color: #666;">`)
	b.WriteString(`<p>You're receiving this email because you've enabled daily schedule notifications.</p>`)
	b.WriteString(`<p>To update your preferences, visit your account settings.</p></div></div>`)
	return b.String()
}

// ReminderMessage formats a match-start reminder body.
func ReminderMessage(m tennis.Match, minutes int) string {
	return fmt.Sprintf("Match starting in %d minutes!\n\n%s vs %s\n%s - %s",
		minutes, m.HomePlayer.Name, m.AwayPlayer.Name,
		m.Tournament.Name, m.Round)
}
