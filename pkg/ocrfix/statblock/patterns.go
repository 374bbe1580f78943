package statblock

import "regexp"

// field binds a Block attribute to its candidate patterns, tried in order.
type field struct {
	name     string
	set      func(*Block, string)
	patterns []*regexp.Regexp
}

func ci(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

var fields = []field{
	{"ac", func(b *Block, v string) { b.AC = v }, ci(
		`AC[:\s]+(-?\d+(?:/[-\d]+)?)`,
		`Armor Class[:\s]+(-?\d+)`,
	)},
	{"thac0", func(b *Block, v string) { b.THAC0 = v }, ci(
		`THAC0[:\s]+(\d+)`,
		`THACO[:\s]+(\d+)`,
		`To Hit[:\s]+(\d+)`,
	)},
	{"hp", func(b *Block, v string) { b.HP = v }, ci(
		`hp[:\s]+(\d+(?:\s*\([^)]+\))?)`,
		`Hit Points?[:\s]+(\d+)`,
		`HP[:\s]+(\d+)`,
	)},
	{"mv", func(b *Block, v string) { b.MV = v }, ci(
		`MV[:\s]+([\d,\s\w()]+?)(?:\s*[;#]|\s*$)`,
		`Movement[:\s]+([\d'"]+)`,
	)},
	{"attacks", func(b *Block, v string) { b.Attacks = v }, ci(
		`#AT[:\s]+([\d/]+)`,
		`Attacks?[:\s]+([\d/]+)`,
	)},
	{"damage", func(b *Block, v string) { b.Damage = v }, ci(
		`Dmg[:\s]+([^;]+?)(?:;|\s*SA|\s*SD|\s*MR|\s*$)`,
		`Damage[:\s]+([^;]+)`,
	)},
	{"special_attacks", func(b *Block, v string) { b.SpecialAttacks = v }, ci(
		`SA[:\s]+([^;]+?)(?:;|\s*SD|\s*MR|\s*$)`,
		`Special Attacks?[:\s]+([^;]+)`,
	)},
	{"special_defenses", func(b *Block, v string) { b.SpecialDefenses = v }, ci(
		`SD[:\s]+([^;]+?)(?:;|\s*MR|\s*$)`,
		`Special Defenses?[:\s]+([^;]+)`,
	)},
	{"magic_resistance", func(b *Block, v string) { b.MagicResistance = v }, ci(
		`MR[:\s]+(\d+%?)`,
		`Magic Resistance[:\s]+(\d+%?)`,
	)},
	{"size", func(b *Block, v string) { b.Size = v }, ci(
		`SZ[:\s]+([TFSMHLG](?:\s*\([^)]+\))?)`,
		`Size[:\s]+(\w+)`,
	)},
	{"morale", func(b *Block, v string) { b.Morale = v }, ci(
		`ML[:\s]+(\d+(?:-\d+)?(?:\s*\([^)]+\))?)`,
		`Morale[:\s]+(\d+)`,
	)},
	{"xp", func(b *Block, v string) { b.XP = v }, ci(
		`XP[:\s]+([\d,]+)`,
		`Experience[:\s]+([\d,]+)`,
	)},
	{"alignment", func(b *Block, v string) { b.Alignment = v }, ci(
		`\b(LG|NG|CG|LN|N|CN|LE|NE|CE)\b`,
		`AL[:\s]+(\w+)`,
	)},
	{"strength", func(b *Block, v string) { b.Str = v }, ci(`\bStr\s+(\d+(?:/\d+)?)`, `Strength[:\s]+(\d+)`)},
	{"dexterity", func(b *Block, v string) { b.Dex = v }, ci(`\bDex\s+(\d+)`, `Dexterity[:\s]+(\d+)`)},
	{"constitution", func(b *Block, v string) { b.Con = v }, ci(`\bCon\s+(\d+)`, `Constitution[:\s]+(\d+)`)},
	{"intelligence", func(b *Block, v string) { b.Int = v }, ci(`\bInt\s+(\d+)`, `Intelligence[:\s]+(\d+)`)},
	{"wisdom", func(b *Block, v string) { b.Wis = v }, ci(`\bWis\s+(\d+)`, `Wisdom[:\s]+(\d+)`)},
	{"charisma", func(b *Block, v string) { b.Cha = v }, ci(`\bCha\s+(\d+)`, `Charisma[:\s]+(\d+)`)},
}

var (
	anchorRE   = regexp.MustCompile(`(?i)THAC0`)
	boldNameRE = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	capsNameRE = regexp.MustCompile(`\b([A-Z][A-Z\s]{2,}[A-Z])\b`)
	xpEndRE    = regexp.MustCompile(`XP\s+[\d,]+\.?`)
)
