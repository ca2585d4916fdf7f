package main

import (
	"flag"
	"strings"
	"unicode"
)

// parseFlagsLoose accepts flags on either side of positional arguments, so
// both of these work:
//
//	actcli chat "Compare A vs B" --multi echo,llama3
//	actcli chat --multi echo,llama3 "Compare A vs B"
//
// Prompts that merely start with a dash ("-5% churn, why?") stay positional.
// Returned positionals keep their original order.
func parseFlagsLoose(fs *flag.FlagSet, args []string) ([]string, error) {
	flags, positional := splitFlagArgs(fs, args)
	if err := fs.Parse(flags); err != nil {
		return nil, err
	}
	return append(positional, fs.Args()...), nil
}

// splitFlagArgs separates flag tokens (with the values they consume) from
// positional text. Everything after "--" is positional.
func splitFlagArgs(fs *flag.FlagSet, args []string) (flags, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, append(positional, args[i+1:]...)
		}
		name, hasValue, ok := flagToken(arg)
		if !ok {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if hasValue || !takesValue(fs, name) || i+1 >= len(args) {
			continue
		}
		i++
		flags = append(flags, args[i])
	}
	return flags, positional
}

// flagToken reports whether arg is spelled like a flag: one or two dashes
// followed by a name that starts with a letter and has no spaces.
func flagToken(arg string) (name string, hasValue, ok bool) {
	trimmed := strings.TrimPrefix(arg, "-")
	trimmed = strings.TrimPrefix(trimmed, "-")
	if trimmed == arg || trimmed == "" {
		return "", false, false
	}
	name, _, hasValue = strings.Cut(trimmed, "=")
	first := []rune(name)
	if len(first) == 0 || !unicode.IsLetter(first[0]) || strings.ContainsAny(name, " \t\n") {
		return "", false, false
	}
	return name, hasValue, true
}

// takesValue is false for bool flags. Unknown names are left for fs.Parse
// to report.
func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return !ok || !bf.IsBoolFlag()
}
