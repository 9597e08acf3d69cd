package sync

import (
	"strings"
	"time"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/pkg/models"
)

// Normalize translates a row arriving in a foreign shape into the
// canonical StudyLogRecord before it may enter the reconciler. Client
// libraries disagree about key casing and about how booleans and
// timestamps come off the wire, so one function absorbs all of that
// variance here instead of inside the conflict-resolution logic.
//
// Unknown keys are ignored. Missing or untranslatable required fields
// return a *RejectedMutationError.
func Normalize(row map[string]interface{}) (models.StudyLogRecord, error) {
	fields := make(map[string]interface{}, len(row))
	for k, v := range row {
		fields[canonicalKey(k)] = v
	}

	rec := models.StudyLogRecord{
		ID:        stringField(fields, "id"),
		UserID:    stringField(fields, "user_id"),
		TrackID:   stringField(fields, "track_id"),
		StudyDate: stringField(fields, "study_date"),
		ContentID: stringField(fields, "content_id"),
		DeviceID:  stringField(fields, "device_id"),
	}

	if v, ok := fields["is_completed"]; ok {
		b, ok := boolValue(v)
		if !ok {
			return models.StudyLogRecord{}, &RejectedMutationError{Key: rec.Key(), Reason: "unreadable is_completed"}
		}
		rec.IsCompleted = b
	}
	if t, ok, readable := timeField(fields, "completed_at"); readable {
		if ok {
			rec.CompletedAt = &t
		}
	} else {
		return models.StudyLogRecord{}, &RejectedMutationError{Key: rec.Key(), Reason: "unreadable completed_at"}
	}
	if t, ok, readable := timeField(fields, "updated_at"); readable && ok {
		rec.UpdatedAt = t
	} else if !readable {
		return models.StudyLogRecord{}, &RejectedMutationError{Key: rec.Key(), Reason: "unreadable updated_at"}
	}

	// Some clients send study_date as a full timestamp.
	if len(rec.StudyDate) > len(calendar.DateFormat) {
		rec.StudyDate = rec.StudyDate[:len(calendar.DateFormat)]
	}

	if err := validateRecord(&rec); err != nil {
		return models.StudyLogRecord{}, err
	}
	if _, err := calendar.ParseDate(rec.StudyDate); err != nil {
		return models.StudyLogRecord{}, &RejectedMutationError{Key: rec.Key(), Reason: "unreadable study_date"}
	}
	return rec, nil
}

// canonicalKey folds camelCase and kebab-case key spellings to snake_case.
func canonicalKey(k string) string {
	var b strings.Builder
	for i, r := range k {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func boolValue(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int:
		return b != 0, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	case string:
		switch strings.ToLower(b) {
		case "true", "t", "1":
			return true, true
		case "false", "f", "0", "":
			return false, true
		}
	}
	return false, false
}

// timeField returns (value, present, readable). An absent or null field is
// readable but not present.
func timeField(fields map[string]interface{}, key string) (time.Time, bool, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return time.Time{}, false, true
	}
	switch t := v.(type) {
	case time.Time:
		return t, true, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false, true
		}
		return *t, true, true
	case string:
		if t == "" {
			return time.Time{}, false, true
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", calendar.DateFormat} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true, true
			}
		}
	case float64:
		// Epoch seconds, the usual JSON number decoding.
		return time.Unix(int64(t), 0).UTC(), true, true
	case int64:
		return time.Unix(t, 0).UTC(), true, true
	}
	return time.Time{}, false, false
}
