// pagewright renders YAML .page files into static HTML sites.
package main

import "github.com/cameronsjo/pagewright/internal/cmd"

func main() {
	cmd.Execute()
}
