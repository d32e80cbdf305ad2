package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envOnlyKeys are configuration keys that have no command-line flag.
var envOnlyKeys = []string{
	"font.em_height",
	"font.descent",
	"style.compiler",
	"style.sass_binary",
	"serve.debounce",
}

// bindFlags binds each configuration key to the flag of the given name.
// A missing flag is a programming error.
func bindFlags(lookup func(name string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		flag := lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag %q bound to %q is not defined", name, key))
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}
