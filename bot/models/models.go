package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type GuildConfig struct {
	gorm.Model
	GuildId      string   `gorm:"uniqueIndex"`
	AdminUsers   []string `gorm:"serializer:json"`
	AdminRoles   []string `gorm:"serializer:json"`
	VoterRoles   []string `gorm:"serializer:json"`
	ModChannelId string
}

// ConfigPatch carries ids to union into a GuildConfig. An empty ModChannelId leaves the
// current moderator channel untouched.
type ConfigPatch struct {
	AdminUsers   []string
	AdminRoles   []string
	VoterRoles   []string
	ModChannelId string
}

func (p ConfigPatch) Empty() bool {
	return len(p.AdminUsers) == 0 && len(p.AdminRoles) == 0 && len(p.VoterRoles) == 0 && p.ModChannelId == ""
}

// Merge unions the patch into c. Existing ids are never removed.
func (c *GuildConfig) Merge(p ConfigPatch) {
	c.AdminUsers = union(c.AdminUsers, p.AdminUsers)
	c.AdminRoles = union(c.AdminRoles, p.AdminRoles)
	c.VoterRoles = union(c.VoterRoles, p.VoterRoles)
	if p.ModChannelId != "" {
		c.ModChannelId = p.ModChannelId
	}
}

// IsAdmin reports whether the member may manage applications.
func (c *GuildConfig) IsAdmin(m Member) bool {
	return contains(c.AdminUsers, m.UserId) || intersects(c.AdminRoles, m.RoleIds)
}

// CanVote is true for admin users, admin roles and voter roles.
func (c *GuildConfig) CanVote(m Member) bool {
	return c.IsAdmin(m) || intersects(c.VoterRoles, m.RoleIds)
}

// CanDismiss is restricted to admin users; admin roles are not enough.
func (c *GuildConfig) CanDismiss(m Member) bool {
	return contains(c.AdminUsers, m.UserId)
}

func (c GuildConfig) Clone() GuildConfig {
	c.AdminUsers = append([]string(nil), c.AdminUsers...)
	c.AdminRoles = append([]string(nil), c.AdminRoles...)
	c.VoterRoles = append([]string(nil), c.VoterRoles...)
	return c
}

// Member is the caller identity used for permission checks.
type Member struct {
	UserId        string
	RoleIds       []string
	Administrator bool
}

type AnswerKind string

const (
	AnswerText  AnswerKind = "text"
	AnswerImage AnswerKind = "image"
)

type Question struct {
	Prompt string     `yaml:"prompt"`
	Kind   AnswerKind `yaml:"kind"`
}

type Application struct {
	Id              string
	GuildId         string
	CreatorId       string
	Name            string
	Description     string
	ChannelId       string
	Deadline        time.Time
	AcceptedCount   *int
	ImageURL        string
	SubmissionLimit *int
	Questions       []Question
	CreatedAt       time.Time
	Closed          bool
}

// Capped reports whether a finite accepted-count cap applies. Zero means no cap.
func (a *Application) Capped() bool {
	return a.AcceptedCount != nil && *a.AcceptedCount > 0
}

// Limited reports whether a per-user submission limit applies. Zero means no limit.
func (a *Application) Limited() bool {
	return a.SubmissionLimit != nil && *a.SubmissionLimit > 0
}

func (a *Application) MatchesName(name string) bool {
	return strings.EqualFold(a.Name, strings.TrimSpace(name))
}

func (a Application) Clone() Application {
	a.Questions = append([]Question(nil), a.Questions...)
	if a.AcceptedCount != nil {
		n := *a.AcceptedCount
		a.AcceptedCount = &n
	}
	if a.SubmissionLimit != nil {
		n := *a.SubmissionLimit
		a.SubmissionLimit = &n
	}
	return a
}

type Answer struct {
	Question string
	Answer   string
	Kind     AnswerKind
}

type Submission struct {
	Id            string
	ApplicationId string
	ApplicantId   string
	Answers       []Answer
	CreatedAt     time.Time
}

func (s Submission) Clone() Submission {
	s.Answers = append([]Answer(nil), s.Answers...)
	return s
}

type VoteChoice string

const (
	VoteAccept VoteChoice = "accept"
	VoteDeny   VoteChoice = "deny"
)

// VoteTally holds the accepting and denying voter ids of one submission. A voter appears in at
// most one of the two slices.
type VoteTally struct {
	SubmissionId string
	Accept       []string
	Deny         []string
}

// Cast drops any previous vote of voterId and records the new one.
func (t *VoteTally) Cast(voterId string, choice VoteChoice) {
	t.Accept = remove(t.Accept, voterId)
	t.Deny = remove(t.Deny, voterId)

	switch choice {
	case VoteAccept:
		t.Accept = append(t.Accept, voterId)
	case VoteDeny:
		t.Deny = append(t.Deny, voterId)
	}
}

func (t VoteTally) Clone() VoteTally {
	t.Accept = append([]string(nil), t.Accept...)
	t.Deny = append([]string(nil), t.Deny...)
	return t
}

// Standing is a submission's position at resolution or status time.
type Standing struct {
	SubmissionId string
	ApplicantId  string
	Accept       int
	Deny         int
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, id := range b {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, id := range b {
		if contains(a, id) {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
