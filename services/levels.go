package services

import "math"

// LevelConfig: XP needed for *next* level (e.g., level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// LevelForXP derives the level from a raw XP total. Pure function: the
// aggregate row stores only XP, so two concurrent grants can both increment
// without a lost update on a stored level column.
func LevelForXP(totalXP int64) int {
	level := 1
	spent := int64(0)
	for totalXP >= spent+xpForNextLevel(level) {
		spent += xpForNextLevel(level)
		level++
	}
	return level
}

// TitleThresholds: levels required before title-up
var TitleThresholds = map[int]int{ // tier → min level
	1: 1,   // Intern
	2: 5,   // Junior
	3: 15,  // Mid-level
	4: 30,  // Senior
	5: 50,  // Staff
	6: 100, // Principal
}

var titleNames = map[int]string{
	1: "Intern",
	2: "Junior",
	3: "Mid-level",
	4: "Senior",
	5: "Staff",
	6: "Principal",
}

// TitleForLevel maps a level onto the career-title ladder.
func TitleForLevel(level int) string {
	for tier := 6; tier >= 1; tier-- {
		if level >= TitleThresholds[tier] {
			return titleNames[tier]
		}
	}
	return titleNames[1]
}
