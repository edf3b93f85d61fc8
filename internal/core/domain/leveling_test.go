package domain

import "testing"

func TestAwardXP(t *testing.T) {
	tests := []struct {
		name         string
		level        int
		xp           int
		gained       int
		wantLevel    int
		wantXP       int
		wantLevels   int
		wantLeveled  bool
	}{
		{
			name:  "no level up",
			level: 1, xp: 0, gained: 50,
			wantLevel: 1, wantXP: 50, wantLevels: 0, wantLeveled: false,
		},
		{
			name:  "exact boundary levels up with zero remainder",
			level: 1, xp: 0, gained: 100,
			wantLevel: 2, wantXP: 0, wantLevels: 1, wantLeveled: true,
		},
		{
			name:  "single award spans multiple levels",
			level: 1, xp: 90, gained: 250,
			// 340 total: 100 to reach level 2, 200 to reach level 3, 40 left.
			wantLevel: 3, wantXP: 40, wantLevels: 2, wantLeveled: true,
		},
		{
			name:  "requirement grows with level",
			level: 5, xp: 499, gained: 1,
			wantLevel: 6, wantXP: 0, wantLevels: 1, wantLeveled: true,
		},
		{
			name:  "zero gain renormalizes nothing",
			level: 3, xp: 40, gained: 0,
			wantLevel: 3, wantXP: 40, wantLevels: 0, wantLeveled: false,
		},
		{
			name:  "negative gain is ignored",
			level: 2, xp: 10, gained: -500,
			wantLevel: 2, wantXP: 10, wantLevels: 0, wantLeveled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AwardXP(tt.level, tt.xp, tt.gained)
			if got.Level != tt.wantLevel {
				t.Errorf("Level: got %d, want %d", got.Level, tt.wantLevel)
			}
			if got.XP != tt.wantXP {
				t.Errorf("XP: got %d, want %d", got.XP, tt.wantXP)
			}
			if got.LevelsGained != tt.wantLevels {
				t.Errorf("LevelsGained: got %d, want %d", got.LevelsGained, tt.wantLevels)
			}
			if got.LeveledUp != tt.wantLeveled {
				t.Errorf("LeveledUp: got %v, want %v", got.LeveledUp, tt.wantLeveled)
			}
		})
	}
}

func TestXPRequiredForLevel(t *testing.T) {
	if got := XPRequiredForLevel(1); got != 100 {
		t.Errorf("level 1: got %d, want 100", got)
	}
	if got := XPRequiredForLevel(7); got != 700 {
		t.Errorf("level 7: got %d, want 700", got)
	}
	if got := XPRequiredForLevel(0); got != 100 {
		t.Errorf("level 0 clamps to 1: got %d, want 100", got)
	}
}
