package statblock

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	lookBehind = 500
	lookAhead  = 1000
)

// Block is one AD&D 2e stat block.
type Block struct {
	Name      string
	Alignment string

	AC      string
	THAC0   string
	HP      string
	MV      string
	Attacks string
	Damage  string

	SpecialAttacks  string
	SpecialDefenses string
	MagicResistance string

	Size   string
	Morale string
	XP     string

	Str, Dex, Con, Int, Wis, Cha string

	Raw      string
	Location string
}

// Region is a candidate stat-block span of the source text, in byte offsets.
type Region struct {
	Start, End int
	Name       string
	Text       string
}

// FindRegions locates stat-block candidates. Every THAC0 anchors one region.
func FindRegions(text string) []Region {
	var regions []Region
	for _, m := range anchorRE.FindAllStringIndex(text, -1) {
		start := m[0]
		behindStart := backRunes(text, m[0], lookBehind)
		behind := text[behindStart:m[0]]

		var name string
		if sm := boldNameRE.FindStringSubmatchIndex(behind); sm != nil {
			start = behindStart + sm[0]
			name = behind[sm[2]:sm[3]]
		} else if sm := capsNameRE.FindStringSubmatchIndex(behind); sm != nil {
			start = behindStart + sm[0]
			name = behind[sm[2]:sm[3]]
		}

		aheadEnd := forwardRunes(text, m[1], lookAhead)
		ahead := text[m[1]:aheadEnd]
		end := aheadEnd
		if xp := xpEndRE.FindStringIndex(ahead); xp != nil {
			end = m[1] + xp[1]
		} else if i := strings.Index(ahead, "\n\n"); i >= 0 {
			end = m[1] + i
		}

		regions = append(regions, Region{
			Start: start,
			End:   end,
			Name:  cleanName(name),
			Text:  text[start:end],
		})
	}
	return regions
}

// Extract parses the fields of a region. ok is false unless at least one
// of AC, THAC0 or hp was found.
func Extract(text string) (Block, bool) {
	b := Block{Raw: text}
	for _, f := range fields {
		for _, re := range f.patterns {
			if m := re.FindStringSubmatch(text); m != nil {
				f.set(&b, strings.TrimSpace(m[1]))
				break
			}
		}
	}
	if b.THAC0 == "" && b.AC == "" && b.HP == "" {
		return Block{}, false
	}
	return b, true
}

// Markdown renders the block.
func (b Block) Markdown() string {
	var lines []string
	add := func(s ...string) { lines = append(lines, s...) }

	add("## "+b.Name, "")
	add("### Combat Statistics", "", "| Stat | Value |", "|------|-------|")
	for _, row := range [][2]string{
		{"AC", b.AC}, {"THAC0", b.THAC0}, {"hp", b.HP},
		{"MV", b.MV}, {"#AT", b.Attacks}, {"Dmg", b.Damage},
	} {
		if row[1] != "" {
			add(fmt.Sprintf("| **%s** | %s |", row[0], row[1]))
		}
	}
	add("")

	if b.SpecialAttacks != "" || b.SpecialDefenses != "" || b.MagicResistance != "" {
		add("### Special Abilities", "")
		if b.SpecialAttacks != "" {
			add("- **Special Attacks:** " + b.SpecialAttacks)
		}
		if b.SpecialDefenses != "" {
			add("- **Special Defenses:** " + b.SpecialDefenses)
		}
		if b.MagicResistance != "" {
			add("- **Magic Resistance:** " + b.MagicResistance)
		}
		add("")
	}

	var abilities []string
	for _, ab := range [][2]string{
		{"Str", b.Str}, {"Dex", b.Dex}, {"Con", b.Con},
		{"Int", b.Int}, {"Wis", b.Wis}, {"Cha", b.Cha},
	} {
		if ab[1] != "" {
			abilities = append(abilities, ab[0]+" "+ab[1])
		}
	}
	if len(abilities) > 0 {
		add("### Ability Scores", "", strings.Join(abilities, " | "), "")
	}

	var other []string
	for _, o := range [][2]string{
		{"Size", b.Size}, {"Morale", b.Morale}, {"Alignment", b.Alignment}, {"XP", b.XP},
	} {
		if o[1] != "" {
			other = append(other, fmt.Sprintf("**%s:** %s", o[0], o[1]))
		}
	}
	if len(other) > 0 {
		add("### Additional Info", "", strings.Join(other, " | "), "")
	}

	add("---", "")
	return strings.Join(lines, "\n")
}

// Document renders the combined file for all blocks.
func Document(source string, blocks []Block) string {
	var sb strings.Builder
	sb.WriteString("# Extracted Stat Blocks\n\n")
	fmt.Fprintf(&sb, "*Extracted from: %s*\n\n", source)
	fmt.Fprintf(&sb, "*Total NPCs: %d*\n\n", len(blocks))
	sb.WriteString("---\n\n")
	for _, b := range blocks {
		sb.WriteString(b.Markdown())
		sb.WriteString("\n")
	}
	return sb.String()
}

// SafeName turns a block name into a file stem. It returns "" when nothing usable remains.
func SafeName(name string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)
	return strings.Join(strings.Fields(kept), "_")
}

func cleanName(name string) string {
	return strings.Join(strings.Fields(strings.Trim(name, "* ")), " ")
}

// backRunes returns the byte offset n runes before pos.
func backRunes(s string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}

// forwardRunes returns the byte offset n runes after pos.
func forwardRunes(s string, pos, n int) int {
	for ; n > 0 && pos < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}
