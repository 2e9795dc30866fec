package cli

func regCommands() {
	//Identity
	identityCmd.AddCommand(identity_newCmd)
	identityCmd.AddCommand(identity_showCmd)
	identityCmd.AddCommand(identity_listCmd)

	//Root
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(identityCmd)
}
