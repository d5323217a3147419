// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"strings"

	"release-manager/internal/config"
	"release-manager/internal/gitops"

	"github.com/spf13/cobra"
)

func filterPrefix(candidates []string, toComplete string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, toComplete) {
			out = append(out, c)
		}
	}
	return out
}

// strategyCompletionFunc completes --publish.
func strategyCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(config.Strategies))
	for _, s := range config.Strategies {
		names = append(names, string(s))
	}
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// remoteCompletionFunc completes --remote from the repository in the working directory.
func remoteCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	repo, err := gitops.Open(".")
	if err != nil {
		// Ignore errors during completion
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(remotes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// branchCompletionFunc completes --branch and --target with local branch names.
func branchCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	repo, err := gitops.Open(".")
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	branches, err := repo.Branches()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(branches, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func manifestCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
}

func configFileCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

func registerCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("publish", strategyCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("remote", remoteCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("branch", branchCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("target", branchCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("manifest", manifestCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("config", configFileCompletionFunc)
	_ = rootCmd.RegisterFlagCompletionFunc("dist-dir", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
