package domain

var Tables = []interface{}{
	&Sweet{},
}
