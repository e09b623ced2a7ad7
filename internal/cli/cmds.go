package cli

func regCommands() {
	//Chain
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(tamperCmd)

	//Votes
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(resultsCmd)

	//Root
	rootCmd.AddCommand(daemonCmd)
}
