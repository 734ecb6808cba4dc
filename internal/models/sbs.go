package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BaseStation (SBS) format constants, as served by dump1090 on port 30003
const (
	SBSMessageType = "MSG"

	// Field positions in a comma separated SBS line
	SBSFieldMessageType      = 0
	SBSFieldTransmissionType = 1
	SBSFieldHexIdent         = 4
	SBSFieldDateGenerated    = 6
	SBSFieldTimeGenerated    = 7
	SBSFieldCallsign         = 10
	SBSFieldAltitude         = 11
	SBSFieldTrack            = 13
	SBSFieldLatitude         = 14
	SBSFieldLongitude        = 15

	// SBSMinFields is the minimum field count for a usable record (up to the hex ident)
	SBSMinFields = SBSFieldHexIdent + 1

	sbsTimeLayout = "2006/01/02 15:04:05.000"
)

// SBSMessage is one parsed BaseStation record. Only the fields needed to
// build a TrackRecord are kept; nil means the record did not carry the field.
type SBSMessage struct {
	TransmissionType int
	ICAO             string
	Timestamp        time.Time
	Callsign         *string
	Altitude         *int
	Track            *float64
	Latitude         *float64
	Longitude        *float64
}

// ParseSBSMessage parses one line of BaseStation output
func ParseSBSMessage(line string) (*SBSMessage, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < SBSMinFields {
		return nil, fmt.Errorf("sbs record too short: %d fields", len(fields))
	}

	if fields[SBSFieldMessageType] != SBSMessageType {
		return nil, fmt.Errorf("unsupported sbs message type: %q", fields[SBSFieldMessageType])
	}

	icao := strings.ToUpper(strings.TrimSpace(fields[SBSFieldHexIdent]))
	if icao == "" {
		return nil, fmt.Errorf("sbs record has no hex ident")
	}

	msg := &SBSMessage{ICAO: icao}
	msg.TransmissionType, _ = strconv.Atoi(fields[SBSFieldTransmissionType])

	date, clock := field(fields, SBSFieldDateGenerated), field(fields, SBSFieldTimeGenerated)
	if date != "" && clock != "" {
		ts, err := time.ParseInLocation(sbsTimeLayout, date+" "+clock, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid sbs timestamp %q: %w", date+" "+clock, err)
		}
		msg.Timestamp = ts
	}

	if cs := field(fields, SBSFieldCallsign); cs != "" {
		msg.Callsign = &cs
	}
	if v := field(fields, SBSFieldAltitude); v != "" {
		alt, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid sbs altitude %q: %w", v, err)
		}
		msg.Altitude = &alt
	}

	var err error
	if msg.Track, err = floatField(fields, SBSFieldTrack); err != nil {
		return nil, err
	}
	if msg.Latitude, err = floatField(fields, SBSFieldLatitude); err != nil {
		return nil, err
	}
	if msg.Longitude, err = floatField(fields, SBSFieldLongitude); err != nil {
		return nil, err
	}

	return msg, nil
}

// field returns the trimmed field at idx, or "" when the record is shorter
func field(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func floatField(fields []string, idx int) (*float64, error) {
	v := field(fields, idx)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid sbs field %d %q: %w", idx, v, err)
	}
	return &f, nil
}
