package constants

const USER_AGENT = "japa/1.0 (+https://github.com/Amund211/japa)"
