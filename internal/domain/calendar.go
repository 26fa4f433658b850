package domain

type Festival struct {
	Category string
	Name     string
	Date     Date
}
