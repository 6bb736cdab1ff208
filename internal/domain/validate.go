package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("isoweek", func(fl validator.FieldLevel) bool {
		return IsWeekKey(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// AttendanceInput is a caller supplied check-in for one day.
type AttendanceInput struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StaffMember string `json:"mitarbeiter" validate:"required"`
	Note        string `json:"bemerkung" validate:"max=2000"`
}

// WeeklyInput assigns the responsible person for an ISO week.
type WeeklyInput struct {
	WeekKey     string `json:"week" validate:"required,isoweek"`
	StaffMember string `json:"mitarbeiter" validate:"required"`
}

// PlanningInput is a caller supplied planning entry for one day. Slot names
// arrive as plain strings so unknown names can be reported instead of dropped.
type PlanningInput struct {
	Date         string              `json:"date" validate:"required,datetime=2006-01-02"`
	OpeningSlots map[string][]string `json:"oeffnungszeiten"`
	ClassVisit   string              `json:"klassenbesuch" validate:"max=500"`
	Note         string              `json:"bemerkung" validate:"max=2000"`
}

// ValidateAttendance checks the input against the roster and returns the
// normalized record.
func ValidateAttendance(roster Roster, input AttendanceInput) (AttendanceRecord, error) {
	input.Date = strings.TrimSpace(input.Date)
	input.StaffMember = strings.TrimSpace(input.StaffMember)
	input.Note = strings.TrimSpace(input.Note)

	vErr := structErrors(input)
	checkRosterMember(vErr, roster, "mitarbeiter", input.StaffMember)
	if err := vErr.OrNil(); err != nil {
		return AttendanceRecord{}, err
	}
	return AttendanceRecord{StaffMember: input.StaffMember, Note: input.Note}, nil
}

// ValidateWeekly checks the week key and roster membership. Future weeks are
// allowed so responsibility can be assigned ahead of time.
func ValidateWeekly(roster Roster, input WeeklyInput) (string, error) {
	input.WeekKey = strings.TrimSpace(input.WeekKey)
	input.StaffMember = strings.TrimSpace(input.StaffMember)

	vErr := structErrors(input)
	checkRosterMember(vErr, roster, "mitarbeiter", input.StaffMember)
	if err := vErr.OrNil(); err != nil {
		return "", err
	}
	return input.StaffMember, nil
}

// ValidatePlanning checks slot names and staff, returning the normalized entry.
func ValidatePlanning(roster Roster, input PlanningInput) (PlanningEntry, error) {
	input.Date = strings.TrimSpace(input.Date)

	vErr := structErrors(input)
	entry := PlanningEntry{
		OpeningSlots: make(map[Slot][]string, len(input.OpeningSlots)),
		ClassVisit:   strings.TrimSpace(input.ClassVisit),
		Note:         strings.TrimSpace(input.Note),
	}
	for name, staff := range input.OpeningSlots {
		slot := Slot(strings.TrimSpace(name))
		if !slot.Valid() {
			vErr.Add("oeffnungszeiten."+name, fmt.Sprintf("unknown slot %q", name))
			continue
		}
		assigned := make([]string, 0, len(staff))
		for _, person := range staff {
			person = strings.TrimSpace(person)
			checkRosterMember(vErr, roster, "oeffnungszeiten."+string(slot), person)
			assigned = append(assigned, person)
		}
		entry.OpeningSlots[slot] = assigned
	}
	if err := vErr.OrNil(); err != nil {
		return PlanningEntry{}, err
	}
	return entry, nil
}

// ValidateDocument checks the structural invariants of a whole document: every
// key parses, every slot belongs to the slot set and no staff name is blank.
// Entries failing these would be dropped on the next load. Roster membership is not
// checked so history written under an older roster stays saveable.
func ValidateDocument(doc Document) error {
	vErr := &ValidationError{}
	for date, record := range doc.Attendance {
		path := string(SectionAttendance) + "." + date
		if !IsDate(date) {
			vErr.Add(path, "invalid date")
		}
		if isBlank(record.StaffMember) {
			vErr.Add(path+".mitarbeiter", "staff member is required")
		}
	}
	for week, name := range doc.WeeklyResponsibility {
		path := string(SectionWeeklyResponsibility) + "." + week
		if !IsWeekKey(week) {
			vErr.Add(path, "invalid week")
		}
		if isBlank(name) {
			vErr.Add(path+".mitarbeiter", "staff member is required")
		}
	}
	for date, entry := range doc.Planning {
		if !IsDate(date) {
			vErr.Add(string(SectionPlanning)+"."+date, "invalid date")
		}
		for slot, staff := range entry.OpeningSlots {
			path := string(SectionPlanning) + "." + date + "." + string(slot)
			if !slot.Valid() {
				vErr.Add(path, fmt.Sprintf("unknown slot %q", slot))
			}
			for i, name := range staff {
				if isBlank(name) {
					vErr.Add(fmt.Sprintf("%s[%d]", path, i), "staff member is required")
				}
			}
		}
	}
	return vErr.OrNil()
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidateDateKey checks a bare date key such as a path parameter.
func ValidateDateKey(date string) error {
	if IsDate(date) {
		return nil
	}
	vErr := &ValidationError{}
	vErr.Add("date", "must be a valid date (YYYY-MM-DD)")
	return vErr
}

func checkRosterMember(vErr *ValidationError, roster Roster, field, name string) {
	if name == "" {
		vErr.Add(field, "staff member is required")
		return
	}
	if !roster.Contains(name) {
		vErr.Add(field, fmt.Sprintf("%q is not on the roster", name))
	}
}

func structErrors(input any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(input)
	if err == nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.Add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.Add(fieldPath(fe), tagMessage(fe))
	}
	return vErr
}

// fieldPath drops the struct name prefix validator adds to namespaces.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "mitarbeiter" {
			return "staff member is required"
		}
		return "is required"
	case "datetime":
		return "must be a valid date (YYYY-MM-DD)"
	case "isoweek":
		return "must be a valid ISO week (YYYY-Www)"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
