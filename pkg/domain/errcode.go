package domain

// Code is a stable numeric error code, grouped by range:
// 1xx lane assignment and athlete validation, 2xx device, 3xx athlete store,
// 4xx race store, 500 fallback.
type Code int

const (
	CodeNone Code = 0

	CodeInvalidLaneNumber     Code = 101
	CodeLaneAlreadyTaken      Code = 102
	CodeAthleteAlreadyInRace  Code = 103
	CodeAthleteNotInRace      Code = 104
	CodeSwapToSameLane        Code = 105
	CodeSwapEmptyLanes        Code = 106
	CodeAthleteInvalidName    Code = 107
	CodeAthleteCantChangeSex  Code = 108
	CodeAthleteInvalidSex     Code = 109
	CodeAthleteInvalidAge     Code = 110
	CodeAthleteInvalidCountry Code = 111

	CodeDeviceNotFound      Code = 201
	CodeDeviceStoreAccess   Code = 202
	CodeDeviceAlreadyExists Code = 203
	CodeDeviceInvalidType   Code = 204

	CodeAthleteNotFound    Code = 301
	CodeAthleteStoreAccess Code = 302

	CodeRaceNotFound        Code = 401
	CodeRaceStoreAccess     Code = 402
	CodeRaceInvalidDistance Code = 403

	CodeUnknown Code = 500
)

const unknownErrorMessage = "An unknown error occurred"

// errorMessages is total over every defined code; only genuinely unmapped
// codes hit the fallback.
var errorMessages = map[Code]string{
	CodeInvalidLaneNumber:     "Invalid lane number. Lane number out of bounds",
	CodeLaneAlreadyTaken:      "This lane already taken. You cannot add two athletes to the same lane",
	CodeAthleteAlreadyInRace:  "Athlete is already assigned to the race. You cannot add the same athlete twice",
	CodeAthleteNotInRace:      "Cannot remove an athlete currently not assigned to the race",
	CodeSwapToSameLane:        "Athlete is already in assigned lane. You cannot swap athlete to the same lane as they already are.",
	CodeSwapEmptyLanes:        "There are no athletes on either lane. You cannot swap empty lanes.",
	CodeAthleteInvalidName:    "Invalid name. Names must be 2-20 letters, apostrophes or hyphens",
	CodeAthleteCantChangeSex:  "Cannot change the sex of an existing athlete",
	CodeAthleteInvalidSex:     "Invalid sex. Value is not a defined option",
	CodeAthleteInvalidAge:     "Invalid age. Athlete age must be between 1 and 99",
	CodeAthleteInvalidCountry: "Invalid country. Country code is not in the reference list",
	CodeDeviceNotFound:        "Device not found",
	CodeDeviceStoreAccess:     "Error accessing the device store",
	CodeDeviceAlreadyExists:   "Device already exists",
	CodeDeviceInvalidType:     "Invalid device type. Value is not a defined option",
	CodeAthleteNotFound:       "Athlete not found",
	CodeAthleteStoreAccess:    "Error accessing the athlete store",
	CodeRaceNotFound:          "Race not found",
	CodeRaceStoreAccess:       "Error accessing the race store",
	CodeRaceInvalidDistance:   "Invalid race distance. Distance is not a defined option",
	CodeUnknown:               unknownErrorMessage,
}

// ErrorMessage resolves a code to its registered human readable message.
func ErrorMessage(c Code) string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return unknownErrorMessage
}
