package report

var Cents = cents
