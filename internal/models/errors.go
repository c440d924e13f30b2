package models

import "errors"

var (
	ErrBlankName     = errors.New("name must not be blank")
	ErrBlankTitle    = errors.New("title must not be blank")
	ErrBlankContent  = errors.New("content must not be blank")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid status")
	ErrSelfRelation  = errors.New("a user cannot relate to themselves")
	ErrLatitude      = errors.New("latitude must be within [-90, 90]")
	ErrLongitude     = errors.New("longitude must be within [-180, 180]")
	ErrCoordinates   = errors.New("latitude and longitude must be given together")
)
