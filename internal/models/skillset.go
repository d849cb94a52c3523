package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SkillSet maps canonical skill tags to proficiency levels while keeping the
// tag order from the source dataset. Direct skill matching is first-match-wins
// over that order, so a plain map would make results depend on map iteration.
type SkillSet struct {
	tags   []string
	levels map[string]int
}

func NewSkillSet() SkillSet {
	return SkillSet{levels: map[string]int{}}
}

func (s *SkillSet) Set(tag string, level int) {
	if s.levels == nil {
		s.levels = map[string]int{}
	}
	if _, ok := s.levels[tag]; !ok {
		s.tags = append(s.tags, tag)
	}
	s.levels[tag] = level
}

func (s SkillSet) Level(tag string) (int, bool) {
	level, ok := s.levels[tag]
	return level, ok
}

// Tags returns the skill tags in dataset insertion order.
func (s SkillSet) Tags() []string {
	return s.tags
}

func (s SkillSet) Len() int {
	return len(s.tags)
}

func (s *SkillSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("skills: expected object, got %v", tok)
	}

	s.tags = nil
	s.levels = map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("skills: invalid key %v", keyTok)
		}
		var level int
		if err := dec.Decode(&level); err != nil {
			return fmt.Errorf("skills[%s]: %w", key, err)
		}
		s.Set(key, level)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (s SkillSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range s.tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", s.levels[tag])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
