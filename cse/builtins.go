package cse

// BuiltinFunctions returns the primitive procedures every session starts
// with.
func BuiltinFunctions() map[string]UserFunction {
	return map[string]UserFunction{
		"+":  ArithFunction("+"),
		"-":  ArithFunction("-"),
		"*":  ArithFunction("*"),
		"/":  ArithFunction("/"),
		"=":  CompareFunction("="),
		"<":  CompareFunction("<"),
		">":  CompareFunction(">"),
		"<=": CompareFunction("<="),
		">=": CompareFunction(">="),

		"abs":            UnaryNumericFunction("abs"),
		"sqrt":           UnaryNumericFunction("sqrt"),
		"exact->inexact": UnaryNumericFunction("exact->inexact"),
		"exact?":         UnaryNumericFunction("exact?"),
		"inexact?":       UnaryNumericFunction("inexact?"),
		"zero?":          UnaryNumericFunction("zero?"),
		"positive?":      UnaryNumericFunction("positive?"),
		"negative?":      UnaryNumericFunction("negative?"),
		"odd?":           UnaryNumericFunction("odd?"),
		"even?":          UnaryNumericFunction("even?"),
		"quotient":       IntegerDivFunction("quotient"),
		"remainder":      IntegerDivFunction("remainder"),
		"modulo":         IntegerDivFunction("modulo"),
		"max":            ExtremumFunction("max"),
		"min":            ExtremumFunction("min"),
		"number?":        NumberPredicateFunction("number?"),
		"complex?":       NumberPredicateFunction("complex?"),
		"real?":          NumberPredicateFunction("real?"),
		"rational?":      NumberPredicateFunction("rational?"),
		"integer?":       NumberPredicateFunction("integer?"),
		"number->string": NumberToStringFunction,
		"string->number": StringToNumberFunction,

		"cons":     ConsFunction,
		"car":      CarFunction,
		"cdr":      CdrFunction,
		"set-car!": SetPairFunction("set-car!"),
		"set-cdr!": SetPairFunction("set-cdr!"),
		"list":     ListFunction,
		"length":   LengthFunction,
		"append":   AppendFunction,
		"reverse":  ReverseFunction,
		"list-ref": ListRefFunction,

		"null?":      TypeQueryFunction("null?"),
		"pair?":      TypeQueryFunction("pair?"),
		"list?":      TypeQueryFunction("list?"),
		"boolean?":   TypeQueryFunction("boolean?"),
		"string?":    TypeQueryFunction("string?"),
		"symbol?":    TypeQueryFunction("symbol?"),
		"procedure?": TypeQueryFunction("procedure?"),
		"vector?":    TypeQueryFunction("vector?"),
		"promise?":   TypeQueryFunction("promise?"),
		"error?":     TypeQueryFunction("error?"),
		"eq?":        EquivalenceFunction("eq?"),
		"eqv?":       EquivalenceFunction("eqv?"),
		"equal?":     EquivalenceFunction("equal?"),
		"not":        NotFunction,

		"string-append":  StringAppendFunction,
		"string-length":  StringLengthFunction,
		"symbol->string": SymbolToStringFunction,
		"string->symbol": StringToSymbolFunction,

		"vector":        VectorFunction,
		"make-vector":   MakeVectorFunction,
		"vector-ref":    VectorRefFunction,
		"vector-set!":   VectorSetFunction,
		"vector-length": VectorLengthFunction,
		"vector->list":  VectorToListFunction,
		"list->vector":  ListToVectorFunction,

		"display": DisplayFunction,
		"newline": NewlineFunction,
		"error":   ErrorFunction,

		"eval":         EvalFunction,
		"apply":        ApplyFunction,
		"force":        ForceFunction,
		"make-promise": MakePromiseFunction,
	}
}

// builtinConstants are bound alongside the primitives.
var builtinConstants = map[string]Sexp{
	"nil":       SexpNull,
	"undefined": SexpVoid,
}

// Prelude is the library written in Scheme itself. It is evaluated with
// no step limit when a session starts.
const Prelude = `
(define (map f xs)
  (if (null? xs)
      nil
      (cons (f (car xs)) (map f (cdr xs)))))

(define (filter pred xs)
  (cond ((null? xs) nil)
        ((pred (car xs)) (cons (car xs) (filter pred (cdr xs))))
        (else (filter pred (cdr xs)))))

(define (accumulate op initial xs)
  (if (null? xs)
      initial
      (op (car xs) (accumulate op initial (cdr xs)))))

(define (for-each f xs)
  (if (null? xs)
      undefined
      (begin (f (car xs)) (for-each f (cdr xs)))))

(define (list-tail xs k)
  (if (= k 0)
      xs
      (list-tail (cdr xs) (- k 1))))

(define (stream-car s) (car s))

(define (stream-cdr s) (force (cdr s)))
`
