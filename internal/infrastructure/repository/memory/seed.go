package memory

import (
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
)

const (
	UserIDOwner      = "user-owner"
	UserIDCaptainA   = "user-captain-a"
	UserIDCaptainB   = "user-captain-b"
	UserIDPlayerA1   = "user-player-a1"
	UserIDPlayerB1   = "user-player-b1"
	FieldIDNorth     = "field-north"
	FieldIDRiverside = "field-riverside"
	TeamIDNomads     = "team-nomads"
	TeamIDHarbour    = "team-harbour"
)

func SeedUsers() []user.User {
	return []user.User{
		{ID: UserIDOwner, Name: "Raka Wibowo", Role: user.RoleUser},
		{ID: UserIDCaptainA, Name: "Dimas Saputra", Role: user.RoleUser},
		{ID: UserIDCaptainB, Name: "Bagus Pranoto", Role: user.RoleUser},
		{ID: UserIDPlayerA1, Name: "Ilham Kurnia", Role: user.RoleUser},
		{ID: UserIDPlayerB1, Name: "Yoga Mahendra", Role: user.RoleUser},
	}
}

func SeedFields() []field.Field {
	eveningHours := field.OperatingHours{}
	for day := time.Sunday; day <= time.Saturday; day++ {
		eveningHours[day] = field.DayHours{Open: 8 * 60, Close: 23 * 60}
	}

	return []field.Field{
		{
			ID:         FieldIDNorth,
			OwnerID:    UserIDOwner,
			Name:       "North Pitch",
			Location:   "Jakarta Utara",
			HourlyRate: 50,
			Capacity:   22,
			Status:     field.StatusAvailable,
			Hours:      field.FullWeek(),
		},
		{
			ID:         FieldIDRiverside,
			OwnerID:    UserIDOwner,
			Name:       "Riverside Arena",
			Location:   "Jakarta Selatan",
			HourlyRate: 75.5,
			Capacity:   14,
			Status:     field.StatusAvailable,
			Hours:      eveningHours,
		},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{
			ID:         TeamIDNomads,
			Name:       "Northside Nomads",
			CaptainID:  UserIDCaptainA,
			MaxPlayers: 11,
			SkillLevel: "intermediate",
			Active:     true,
		},
		{
			ID:         TeamIDHarbour,
			Name:       "Harbour Rovers",
			CaptainID:  UserIDCaptainB,
			MaxPlayers: 11,
			SkillLevel: "intermediate",
			Active:     true,
		},
	}
}

func SeedMembers() []team.Member {
	return []team.Member{
		{TeamID: TeamIDNomads, UserID: UserIDCaptainA, Role: team.RoleCaptain, Status: team.MemberActive},
		{TeamID: TeamIDNomads, UserID: UserIDPlayerA1, Role: team.RolePlayer, Status: team.MemberActive},
		{TeamID: TeamIDHarbour, UserID: UserIDCaptainB, Role: team.RoleCaptain, Status: team.MemberActive},
		{TeamID: TeamIDHarbour, UserID: UserIDPlayerB1, Role: team.RolePlayer, Status: team.MemberActive},
	}
}
