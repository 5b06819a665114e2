// Package model holds the data types shared across the conversion engine:
// the changeset the HG reader hands in, and the Date/Attribution value
// types used to normalize it into a Git commit.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date wraps a system time, preserving the timezone offset it was built
// with rather than normalizing to local or UTC, because Git records an
// author/committer timestamp with its own offset.
type Date struct {
	timestamp time.Time
}

// NewDateFromUnix builds a Date from a Unix timestamp and a [+-]hhmm
// offset, the form an HG reader is expected to hand in.
func NewDateFromUnix(sec int64, offset string) (Date, error) {
	loc, err := locationFromZoneOffset(offset)
	if err != nil {
		return Date{}, err
	}
	return Date{timestamp: time.Unix(sec, 0).In(loc)}, nil
}

// ParseDate accepts RFC3339 or Git's own "<unix> <offset>" form.
func ParseDate(text string) (Date, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{timestamp: time.Now().UTC()}, nil
	}
	if fields := strings.Fields(text); len(fields) == 2 && gitDateRE.MatchString(text) {
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Date{}, err
		}
		return NewDateFromUnix(n, fields[1])
	}
	trial, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return Date{}, fmt.Errorf("not a valid timestamp: %q", text)
	}
	return Date{timestamp: trial.Truncate(time.Second)}, nil
}

var gitDateRE = regexp.MustCompile(`^[0-9]+\s+[+-][0-9]{4}$`)
var zoneOffsetRE = regexp.MustCompile(`^([-+])([0-9]{2})([0-9]{2})$`)

// locationFromZoneOffset builds a fixed-offset Location from a [+-]hhmm
// string. A Git date carries only this offset, never a named zone, so a
// fixed zone whose name is the offset itself round-trips correctly.
func locationFromZoneOffset(offset string) (*time.Location, error) {
	m := zoneOffsetRE.FindStringSubmatch(offset)
	if m == nil {
		return nil, errors.New("ill-formed timezone offset " + offset)
	}
	hours, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	if hours > 14 || mins > 59 {
		return nil, errors.New("dubious zone offset " + offset)
	}
	secs := (hours*60 + mins) * 60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone(offset, secs), nil
}

// String formats the date the way Git itself stores it: Unix seconds
// followed by the hhmm offset.
func (d Date) String() string {
	return fmt.Sprintf("%d %s", d.timestamp.Unix(), d.timestamp.Format("-0700"))
}

// RFC1123Z is used when a message needs a human-readable date header.
func (d Date) RFC1123Z() string {
	return d.timestamp.Format(time.RFC1123Z)
}

func (d Date) IsZero() bool { return d.timestamp.IsZero() }

func (d Date) Equal(other Date) bool { return d.timestamp.Equal(other.timestamp) }

func (d Date) Before(other Date) bool { return d.timestamp.Before(other.timestamp) }
