package domain

import "errors"

var (
	// ErrStorageRead is returned when the backing file is missing, unreadable or malformed.
	ErrStorageRead = errors.New("storage read failed")
	// ErrStorageWrite is returned when the backing file cannot be overwritten.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrIndexOutOfRange indicates a row index outside [0, len-1].
	ErrIndexOutOfRange = errors.New("row index out of range")
	// ErrInvalidRecordID indicates an appended record does not carry max(id)+1.
	ErrInvalidRecordID = errors.New("record id is not the next id")
	// ErrFieldNotFound indicates a report referenced a column the dataset does not have.
	ErrFieldNotFound = errors.New("field not found")
	// ErrUnknownAnswerOption indicates the selected label is not a configured answer option.
	ErrUnknownAnswerOption = errors.New("unknown answer option")
	// ErrNoQuestions indicates a questionnaire without any questions.
	ErrNoQuestions = errors.New("questionnaire has no questions")
	// ErrUnknownAxis indicates a question carries an axis tag outside x±, y±, z±.
	ErrUnknownAxis = errors.New("unknown axis")
	// ErrUnknownAggregation indicates a pivot aggregation other than sum, mean, min, max, median.
	ErrUnknownAggregation = errors.New("unknown aggregation")
	// ErrAttemptNotFound is returned when a quiz attempt has not been started.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrQuestionnaireNotFound indicates the questionnaire could not be loaded.
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
)
