package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENT      // status, myField
	NUMBER_LIT // 123, 123.45
	STRING_LIT // "hello"

	// Declaration keywords
	APP
	DATA
	VIEW
	ACTION
	TASK

	// Field and constraint keywords
	REF
	REQUIRED
	UNIQUE
	MIN
	MAX
	DEFAULT
	ENUM
	AI

	// App keywords
	DESCRIPTION

	// View keywords
	FROM
	SHOW
	FILTER
	SORT
	ASC
	DESC

	// Action keywords
	ON
	VALIDATE
	SET
	IF
	ELSE
	SAVE
	ALERT

	// Task keywords
	EVERY
	RUN

	// AI operation modes
	CLASSIFY
	EXTRACT
	GENERATE

	// Boolean and logical keywords
	TRUE
	FALSE
	AND
	OR
	NOT

	// Type keywords
	TEXT_TYPE
	NUMBER_TYPE
	BOOL_TYPE
	DATE_TYPE

	// Operators
	ASSIGN // =
	EQ     // ==
	NEQ    // !=
	LT     // <
	GT     // >
	LEQ    // <=
	GEQ    // >=

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	COLON    // :
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	File    string
	Line    int
	Column  int
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case NUMBER_LIT:
		return "NUMBER_LIT"
	case STRING_LIT:
		return "STRING_LIT"
	case APP:
		return "APP"
	case DATA:
		return "DATA"
	case VIEW:
		return "VIEW"
	case ACTION:
		return "ACTION"
	case TASK:
		return "TASK"
	case REF:
		return "REF"
	case REQUIRED:
		return "REQUIRED"
	case UNIQUE:
		return "UNIQUE"
	case MIN:
		return "MIN"
	case MAX:
		return "MAX"
	case DEFAULT:
		return "DEFAULT"
	case ENUM:
		return "ENUM"
	case AI:
		return "AI"
	case DESCRIPTION:
		return "DESCRIPTION"
	case FROM:
		return "FROM"
	case SHOW:
		return "SHOW"
	case FILTER:
		return "FILTER"
	case SORT:
		return "SORT"
	case ASC:
		return "ASC"
	case DESC:
		return "DESC"
	case ON:
		return "ON"
	case VALIDATE:
		return "VALIDATE"
	case SET:
		return "SET"
	case IF:
		return "IF"
	case ELSE:
		return "ELSE"
	case SAVE:
		return "SAVE"
	case ALERT:
		return "ALERT"
	case EVERY:
		return "EVERY"
	case RUN:
		return "RUN"
	case CLASSIFY:
		return "CLASSIFY"
	case EXTRACT:
		return "EXTRACT"
	case GENERATE:
		return "GENERATE"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case TEXT_TYPE:
		return "TEXT_TYPE"
	case NUMBER_TYPE:
		return "NUMBER_TYPE"
	case BOOL_TYPE:
		return "BOOL_TYPE"
	case DATE_TYPE:
		return "DATE_TYPE"
	case ASSIGN:
		return "ASSIGN"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case LEQ:
		return "LEQ"
	case GEQ:
		return "GEQ"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	default:
		return fmt.Sprintf("TokenType(%d)", t)
	}
}

// keywords maps keyword strings to their token types
var keywords = map[string]TokenType{
	"app":         APP,
	"data":        DATA,
	"view":        VIEW,
	"action":      ACTION,
	"task":        TASK,
	"ref":         REF,
	"required":    REQUIRED,
	"unique":      UNIQUE,
	"min":         MIN,
	"max":         MAX,
	"default":     DEFAULT,
	"enum":        ENUM,
	"ai":          AI,
	"description": DESCRIPTION,
	"from":        FROM,
	"show":        SHOW,
	"filter":      FILTER,
	"sort":        SORT,
	"asc":         ASC,
	"desc":        DESC,
	"on":          ON,
	"validate":    VALIDATE,
	"set":         SET,
	"if":          IF,
	"else":        ELSE,
	"save":        SAVE,
	"alert":       ALERT,
	"every":       EVERY,
	"run":         RUN,
	"classify":    CLASSIFY,
	"extract":     EXTRACT,
	"generate":    GENERATE,
	"true":        TRUE,
	"false":       FALSE,
	"and":         AND,
	"or":          OR,
	"not":         NOT,
	"text":        TEXT_TYPE,
	"number":      NUMBER_TYPE,
	"bool":        BOOL_TYPE,
	"date":        DATE_TYPE,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
