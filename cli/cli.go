// Package cli implements the tinychain command-line surface: flag-set-per-
// subcommand dispatch, wiring the chain, UTXO set, wallet keyring, and
// P2P server together. Grounded on the teacher's cli/cli.go.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kilimba/tinychain/blockchain"
	"github.com/kilimba/tinychain/internal/logging"
	"github.com/kilimba/tinychain/nodeconfig"
	"github.com/kilimba/tinychain/p2p"
	"github.com/kilimba/tinychain/store"
	"github.com/kilimba/tinychain/wallet"
)

// CommandLine is the entry point cmd/tinychain's main calls into.
type CommandLine struct{}

func (cli *CommandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println(" getbalance -address ADDRESS -node NODE_ADDR        get the balance of an address")
	fmt.Println(" createblockchain -address ADDRESS -node NODE_ADDR  create a chain with a genesis reward to ADDRESS")
	fmt.Println(" printchain -node NODE_ADDR                         print every block in the chain")
	fmt.Println(" send -from FROM -to TO -amount AMOUNT -node NODE_ADDR [-mine]   send coins")
	fmt.Println(" createwallet -node NODE_ADDR                       create a new wallet")
	fmt.Println(" listaddresses -node NODE_ADDR                      list addresses in the local keyring")
	fmt.Println(" reindexutxo -node NODE_ADDR                        rebuild the UTXO set")
	fmt.Println(" startnode -node NODE_ADDR [-miner ADDRESS]         start this node, optionally mining to ADDRESS")
}

// dataDir derives a filesystem path for a node's store from its address,
// so multiple local nodes (as in a dev/test cluster) don't collide.
// Grounded on the teacher's convention of deriving a DB directory from
// NODE_ID, generalized from a bare port number to a full host:port.
func dataDir(nodeAddr string) string {
	safe := strings.NewReplacer(":", "_", ".", "-").Replace(nodeAddr)
	return "nodedata/" + safe
}

func openStore(nodeAddr string) (store.Store, error) {
	return store.Open(dataDir(nodeAddr))
}

func (cli *CommandLine) createChain(address, nodeAddr string) {
	if !wallet.ValidateAddress(address) {
		logging.Fatal(fmt.Errorf("invalid address: %s", address))
	}

	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.CreateChain(address, st)
	if err != nil {
		logging.Fatal(err)
	}

	utxoSet := blockchain.UTXOSet{Chain: chain}
	if err := utxoSet.Reindex(); err != nil {
		logging.Fatal(err)
	}

	fmt.Println("finished creating chain")
}

func (cli *CommandLine) printChain(nodeAddr string) {
	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.LoadChain(st)
	if err != nil {
		logging.Fatal(err)
	}

	it := chain.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			logging.Fatal(err)
		}
		if block == nil {
			break
		}

		fmt.Printf("prev. hash: %x\n", block.PrevHash)
		fmt.Printf("hash: %x\n", block.Hash)
		fmt.Printf("height: %d\n", block.Height)
		fmt.Printf("pow valid: %s\n", strconv.FormatBool(blockchain.NewProof(block).Validate()))
		for _, tx := range block.Transactions {
			fmt.Printf("  tx %x (%d inputs, %d outputs)\n", tx.ID, len(tx.Inputs), len(tx.Outputs))
		}
		fmt.Println()
	}
}

func (cli *CommandLine) getBalance(address, nodeAddr string) {
	if !wallet.ValidateAddress(address) {
		logging.Fatal(fmt.Errorf("invalid address: %s", address))
	}

	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.LoadChain(st)
	if err != nil {
		logging.Fatal(err)
	}
	utxoSet := blockchain.UTXOSet{Chain: chain}

	pubKeyHash, err := wallet.PubKeyHashFromAddress(address)
	if err != nil {
		logging.Fatal(err)
	}

	utxos, err := utxoSet.FindUTXO(pubKeyHash)
	if err != nil {
		logging.Fatal(err)
	}

	var balance int32
	for _, out := range utxos {
		balance += out.Value
	}
	fmt.Printf("balance of %s: %d\n", address, balance)
}

func (cli *CommandLine) send(from, to string, amount int32, nodeAddr string, mineNow bool) {
	if !wallet.ValidateAddress(from) {
		logging.Fatal(fmt.Errorf("invalid from address: %s", from))
	}
	if !wallet.ValidateAddress(to) {
		logging.Fatal(fmt.Errorf("invalid to address: %s", to))
	}

	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.LoadChain(st)
	if err != nil {
		logging.Fatal(err)
	}
	utxoSet := blockchain.UTXOSet{Chain: chain}

	keyring, err := wallet.LoadKeyring(st)
	if err != nil {
		logging.Fatal(err)
	}
	senderWallet, ok := keyring.GetWallet(from)
	if !ok {
		logging.Fatal(fmt.Errorf("no wallet for address %s in local keyring", from))
	}

	tx, err := blockchain.NewUTXOTransaction(senderWallet, to, amount, utxoSet, chain.FindTransaction)
	if err != nil {
		logging.Fatal(err)
	}

	if mineNow {
		cbTx, err := blockchain.CoinbaseTx(from, "")
		if err != nil {
			logging.Fatal(err)
		}
		block, err := chain.MineBlock([]*blockchain.Transaction{cbTx, tx})
		if err != nil {
			logging.Fatal(err)
		}
		if err := utxoSet.Update(block); err != nil {
			logging.Fatal(err)
		}
	} else {
		cfg := nodeconfig.Load(nodeAddr, "")
		data, err := tx.Serialize()
		if err != nil {
			logging.Fatal(err)
		}
		if err := p2p.SendTx(cfg.KnownNodes.Bootstrap(), cfg.NodeAddr, data); err != nil {
			logging.Warn("could not relay transaction: %v", err)
		}
	}

	fmt.Println("success")
}

func (cli *CommandLine) reindexUTXO(nodeAddr string) {
	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.LoadChain(st)
	if err != nil {
		logging.Fatal(err)
	}
	utxoSet := blockchain.UTXOSet{Chain: chain}
	if err := utxoSet.Reindex(); err != nil {
		logging.Fatal(err)
	}

	count, err := utxoSet.CountTransactions()
	if err != nil {
		logging.Fatal(err)
	}
	fmt.Printf("done! there are %d transactions in the UTXO set\n", count)
}

func (cli *CommandLine) listAddresses(nodeAddr string) {
	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	keyring, err := wallet.LoadKeyring(st)
	if err != nil {
		logging.Fatal(err)
	}
	for _, address := range keyring.ListAddresses() {
		fmt.Println(address)
	}
}

func (cli *CommandLine) createWallet(nodeAddr string) {
	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	keyring, err := wallet.LoadKeyring(st)
	if err != nil {
		logging.Fatal(err)
	}
	address, err := keyring.CreateWallet()
	if err != nil {
		logging.Fatal(err)
	}
	fmt.Printf("new wallet created with address: %s\n", address)
}

func (cli *CommandLine) startNode(nodeAddr, minerAddress string) {
	if minerAddress != "" && !wallet.ValidateAddress(minerAddress) {
		logging.Fatal(fmt.Errorf("invalid miner address: %s", minerAddress))
	}

	st, err := openStore(nodeAddr)
	if err != nil {
		logging.Fatal(err)
	}
	defer st.Close()

	chain, err := blockchain.LoadChain(st)
	if err != nil {
		logging.Fatal(err)
	}

	cfg := nodeconfig.Load(nodeAddr, minerAddress)
	if minerAddress != "" {
		logging.Info("mining is on, rewards go to %s", minerAddress)
	}

	server := p2p.NewServer(cfg, chain)
	if err := server.ListenAndServe(); err != nil {
		logging.Fatal(err)
	}
}

// Run parses os.Args and dispatches to the matching subcommand.
func (cli *CommandLine) Run() {
	if len(os.Args) < 2 {
		cli.printUsage()
		os.Exit(1)
	}

	getBalanceCMD := flag.NewFlagSet("getbalance", flag.ExitOnError)
	createChainCMD := flag.NewFlagSet("createblockchain", flag.ExitOnError)
	sendCMD := flag.NewFlagSet("send", flag.ExitOnError)
	printChainCMD := flag.NewFlagSet("printchain", flag.ExitOnError)
	createWalletCMD := flag.NewFlagSet("createwallet", flag.ExitOnError)
	listAddressesCMD := flag.NewFlagSet("listaddresses", flag.ExitOnError)
	reindexUTXOCMD := flag.NewFlagSet("reindexutxo", flag.ExitOnError)
	startNodeCMD := flag.NewFlagSet("startnode", flag.ExitOnError)

	getBalanceAddress := getBalanceCMD.String("address", "", "wallet address to get the balance of")
	getBalanceNode := getBalanceCMD.String("node", "", "this node's address")

	createChainAddress := createChainCMD.String("address", "", "address to receive the genesis reward")
	createChainNode := createChainCMD.String("node", "", "this node's address")

	sendFrom := sendCMD.String("from", "", "source wallet address")
	sendTo := sendCMD.String("to", "", "destination wallet address")
	sendAmount := sendCMD.Int("amount", 0, "amount to send")
	sendMine := sendCMD.Bool("mine", false, "mine immediately on this node instead of relaying")
	sendNode := sendCMD.String("node", "", "this node's address")

	printChainNode := printChainCMD.String("node", "", "this node's address")
	createWalletNode := createWalletCMD.String("node", "", "this node's address")
	listAddressesNode := listAddressesCMD.String("node", "", "this node's address")
	reindexUTXONode := reindexUTXOCMD.String("node", "", "this node's address")

	startNodeMiner := startNodeCMD.String("miner", "", "enable mining mode and send rewards to ADDRESS")
	startNodeNode := startNodeCMD.String("node", "", "this node's address (defaults to NODE_ADDRESS env or 127.0.0.1:2001)")

	switch os.Args[1] {
	case "getbalance":
		_ = getBalanceCMD.Parse(os.Args[2:])
	case "createblockchain":
		_ = createChainCMD.Parse(os.Args[2:])
	case "send":
		_ = sendCMD.Parse(os.Args[2:])
	case "printchain":
		_ = printChainCMD.Parse(os.Args[2:])
	case "createwallet":
		_ = createWalletCMD.Parse(os.Args[2:])
	case "listaddresses":
		_ = listAddressesCMD.Parse(os.Args[2:])
	case "reindexutxo":
		_ = reindexUTXOCMD.Parse(os.Args[2:])
	case "startnode":
		_ = startNodeCMD.Parse(os.Args[2:])
	default:
		cli.printUsage()
		os.Exit(1)
	}

	if getBalanceCMD.Parsed() {
		if *getBalanceAddress == "" {
			getBalanceCMD.Usage()
			os.Exit(1)
		}
		cli.getBalance(*getBalanceAddress, resolveNode(*getBalanceNode))
	}

	if createChainCMD.Parsed() {
		if *createChainAddress == "" {
			createChainCMD.Usage()
			os.Exit(1)
		}
		cli.createChain(*createChainAddress, resolveNode(*createChainNode))
	}

	if printChainCMD.Parsed() {
		cli.printChain(resolveNode(*printChainNode))
	}

	if createWalletCMD.Parsed() {
		cli.createWallet(resolveNode(*createWalletNode))
	}

	if listAddressesCMD.Parsed() {
		cli.listAddresses(resolveNode(*listAddressesNode))
	}

	if reindexUTXOCMD.Parsed() {
		cli.reindexUTXO(resolveNode(*reindexUTXONode))
	}

	if sendCMD.Parsed() {
		if *sendFrom == "" || *sendTo == "" || *sendAmount <= 0 {
			sendCMD.Usage()
			os.Exit(1)
		}
		cli.send(*sendFrom, *sendTo, int32(*sendAmount), resolveNode(*sendNode), *sendMine)
	}

	if startNodeCMD.Parsed() {
		cli.startNode(resolveNode(*startNodeNode), *startNodeMiner)
	}
}

func resolveNode(flagValue string) string {
	return nodeconfig.Load(flagValue, "").NodeAddr
}
