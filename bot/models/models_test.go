package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteTallyCastKeepsOneVotePerVoter(t *testing.T) {
	tally := VoteTally{SubmissionId: "s1"}

	sequence := []VoteChoice{VoteAccept, VoteAccept, VoteDeny, VoteAccept, VoteDeny, VoteDeny}
	for i, choice := range sequence {
		tally.Cast("voter", choice)

		inAccept := countOf(tally.Accept, "voter")
		inDeny := countOf(tally.Deny, "voter")
		require.Equal(t, 1, inAccept+inDeny, "cast %d", i)

		if choice == VoteAccept {
			assert.Equal(t, 1, inAccept)
		} else {
			assert.Equal(t, 1, inDeny)
		}
	}
}

func TestVoteTallyCastIndependentVoters(t *testing.T) {
	tally := VoteTally{}
	tally.Cast("a", VoteAccept)
	tally.Cast("b", VoteDeny)
	tally.Cast("c", VoteAccept)
	tally.Cast("b", VoteAccept)

	assert.ElementsMatch(t, []string{"a", "c", "b"}, tally.Accept)
	assert.Empty(t, tally.Deny)
}

func TestGuildConfigMergeUnions(t *testing.T) {
	cfg := GuildConfig{GuildId: "g", AdminUsers: []string{"u1"}, ModChannelId: "c1"}

	cfg.Merge(ConfigPatch{AdminUsers: []string{"u1", "u2"}, VoterRoles: []string{"r1"}})
	assert.Equal(t, []string{"u1", "u2"}, cfg.AdminUsers)
	assert.Equal(t, []string{"r1"}, cfg.VoterRoles)
	assert.Equal(t, "c1", cfg.ModChannelId)

	cfg.Merge(ConfigPatch{ModChannelId: "c2", VoterRoles: []string{"r2"}})
	assert.Equal(t, []string{"r1", "r2"}, cfg.VoterRoles)
	assert.Equal(t, "c2", cfg.ModChannelId)
}

func TestGuildConfigPermissions(t *testing.T) {
	cfg := GuildConfig{
		AdminUsers: []string{"boss"},
		AdminRoles: []string{"mods"},
		VoterRoles: []string{"voters"},
	}

	boss := Member{UserId: "boss"}
	mod := Member{UserId: "m", RoleIds: []string{"mods"}}
	voter := Member{UserId: "v", RoleIds: []string{"voters"}}
	nobody := Member{UserId: "n", RoleIds: []string{"everyone"}}

	assert.True(t, cfg.IsAdmin(boss))
	assert.True(t, cfg.IsAdmin(mod))
	assert.False(t, cfg.IsAdmin(voter))

	assert.True(t, cfg.CanVote(boss))
	assert.True(t, cfg.CanVote(mod))
	assert.True(t, cfg.CanVote(voter))
	assert.False(t, cfg.CanVote(nobody))

	assert.True(t, cfg.CanDismiss(boss))
	assert.False(t, cfg.CanDismiss(mod))
}

func TestApplicationCapAndLimit(t *testing.T) {
	zero, two := 0, 2

	app := Application{}
	assert.False(t, app.Capped())
	assert.False(t, app.Limited())

	app.AcceptedCount, app.SubmissionLimit = &zero, &zero
	assert.False(t, app.Capped())
	assert.False(t, app.Limited())

	app.AcceptedCount, app.SubmissionLimit = &two, &two
	assert.True(t, app.Capped())
	assert.True(t, app.Limited())

	clone := app.Clone()
	*clone.AcceptedCount = 5
	assert.Equal(t, 2, *app.AcceptedCount)
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
