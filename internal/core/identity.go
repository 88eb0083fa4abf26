package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// RaceID builds the persistent key for a race weekend, e.g. "2024_10".
func RaceID(season, round int) string {
	return fmt.Sprintf("%d_%d", season, round)
}

// ParseRaceIdentity extracts season, round and race id from a standardized
// partition path such as "year=2024/round=10_Spanish_Grand_Prix".
func ParseRaceIdentity(path string) (season int, round int, raceID string, err error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(path)))
	parts := strings.Split(clean, "/")
	if len(parts) < 2 {
		return 0, 0, "", fmt.Errorf("race path %q: expected year=<season>/round=<n>_<name>", path)
	}

	season, err = partitionValue(parts[len(parts)-2], "year")
	if err != nil {
		return 0, 0, "", fmt.Errorf("race path %q: %w", path, err)
	}

	roundPart, _, _ := strings.Cut(parts[len(parts)-1], "_")
	round, err = partitionValue(roundPart, "round")
	if err != nil {
		return 0, 0, "", fmt.Errorf("race path %q: %w", path, err)
	}

	return season, round, RaceID(season, round), nil
}

func partitionValue(segment, key string) (int, error) {
	name, value, ok := strings.Cut(segment, "=")
	if !ok || name != key {
		return 0, fmt.Errorf("segment %q is not a %s partition", segment, key)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("segment %q: %w", segment, err)
	}
	return n, nil
}

// ParseRaceRef accepts either a race id ("2024_10") or a partition path and
// returns the season, round and race id it names.
func ParseRaceRef(ref string) (season int, round int, raceID string, err error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "=") {
		return ParseRaceIdentity(ref)
	}

	seasonText, roundText, ok := strings.Cut(ref, "_")
	if !ok {
		return 0, 0, "", fmt.Errorf("race %q: expected <season>_<round> or year=<season>/round=<n>_<name>", ref)
	}
	season, err = strconv.Atoi(seasonText)
	if err != nil || season <= 0 {
		return 0, 0, "", fmt.Errorf("race %q: invalid season %q", ref, seasonText)
	}
	round, err = strconv.Atoi(roundText)
	if err != nil || round <= 0 {
		return 0, 0, "", fmt.Errorf("race %q: invalid round %q", ref, roundText)
	}
	return season, round, RaceID(season, round), nil
}
