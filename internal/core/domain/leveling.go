package domain

// xpPerLevelFactor scales the per-level XP requirement. The requirement grows
// linearly with level, so each level costs proportionally more.
const xpPerLevelFactor = 100

// XPRequiredForLevel returns the XP needed to advance from the given level to
// the next one.
func XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * xpPerLevelFactor
}

// LevelUpResult reports the outcome of an XP award.
type LevelUpResult struct {
	Level        int
	XP           int
	LeveledUp    bool
	LevelsGained int
}

// AwardXP adds gained XP to the current level/xp pair and renormalizes.
// A single award may span several level-ups; the requirement is recomputed
// after every increment because it depends on the current level.
func AwardXP(level, xp, gained int) LevelUpResult {
	if level < 1 {
		level = 1
	}
	if xp < 0 {
		xp = 0
	}
	if gained < 0 {
		gained = 0
	}

	total := xp + gained
	levels := 0
	for total >= XPRequiredForLevel(level) {
		total -= XPRequiredForLevel(level)
		level++
		levels++
	}

	return LevelUpResult{
		Level:        level,
		XP:           total,
		LeveledUp:    levels > 0,
		LevelsGained: levels,
	}
}
